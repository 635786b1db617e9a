package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPassValid(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	visit := func(day int) time.Time {
		return time.Date(2026, 3, day, 9, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name string
		req  VisitorRequest
		want bool
	}{
		{"approved today", VisitorRequest{Status: VisitorApproved, DateOfVisit: visit(10)}, true},
		{"approved tomorrow", VisitorRequest{Status: VisitorApproved, DateOfVisit: visit(11)}, true},
		{"approved yesterday", VisitorRequest{Status: VisitorApproved, DateOfVisit: visit(9)}, false},
		{"pending today", VisitorRequest{Status: VisitorPending, DateOfVisit: visit(10)}, false},
		{"rejected today", VisitorRequest{Status: VisitorRejected, DateOfVisit: visit(10)}, false},
		{"approved no date", VisitorRequest{Status: VisitorApproved}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.req.PassValid(now))
		})
	}
}
