// Package crm pushes qualified leads to the sales board. Monday.com is the
// concrete sink; the service only sees the LeadSink interface.
package crm

import (
	"context"

	"github.com/novahouse/renobot/internal/extract"
)

// Lead is the flat record handed to the CRM once a conversation qualifies.
type Lead struct {
	SessionID    string
	Name         string
	Email        string
	Phone        string
	City         string
	Package      string
	SquareMeters float64
	Budget       int
	Score        int
}

// LeadSink accepts a lead and returns the opaque external item id. Failures
// are logged by the caller, never retried synchronously.
type LeadSink interface {
	CreateLead(ctx context.Context, lead Lead) (string, error)
}

// LeadFromMemory flattens conversation memory into a lead record.
func LeadFromMemory(sessionID string, mem extract.Memory) Lead {
	lead := Lead{SessionID: sessionID}
	lead.Name, _ = mem.StringValue(extract.FactName)
	lead.Email, _ = mem.StringValue(extract.FactEmail)
	lead.Phone, _ = mem.StringValue(extract.FactPhone)
	lead.City, _ = mem.StringValue(extract.FactCity)
	lead.Package, _ = mem.StringValue(extract.FactPackage)
	lead.SquareMeters, _ = mem.FloatValue(extract.FactSquareMeters)
	lead.Budget, _ = mem.IntValue(extract.FactBudget)
	lead.Score = Score(mem)
	return lead
}

// Score rates lead quality 0-100 from fact completeness. Contact info counts
// most because sales cannot follow up without it.
func Score(mem extract.Memory) int {
	score := 0
	if _, ok := mem[extract.FactPhone]; ok {
		score += 25
	}
	if _, ok := mem[extract.FactEmail]; ok {
		score += 15
	}
	if _, ok := mem[extract.FactBudget]; ok {
		score += 20
	}
	if _, ok := mem[extract.FactSquareMeters]; ok {
		score += 15
	}
	if _, ok := mem[extract.FactPackage]; ok {
		score += 15
	}
	if _, ok := mem[extract.FactName]; ok {
		score += 5
	}
	if _, ok := mem[extract.FactCity]; ok {
		score += 5
	}
	return score
}

// Qualified reports whether the conversation gathered enough to hand off:
// a way to reach the client plus at least two preference facts.
func Qualified(mem extract.Memory) bool {
	_, hasPhone := mem[extract.FactPhone]
	_, hasEmail := mem[extract.FactEmail]
	if !hasPhone && !hasEmail {
		return false
	}

	facts := 0
	for _, k := range []extract.FactKey{extract.FactBudget, extract.FactSquareMeters, extract.FactPackage, extract.FactCity} {
		if _, ok := mem[k]; ok {
			facts++
		}
	}
	return facts >= 2
}
