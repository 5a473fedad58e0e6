package main

import (
	"strings"
	"testing"
)

func TestRenderTableStyles(t *testing.T) {
	rows := [][]string{{"Stage 1", "3"}, {"Rejected"}}

	plain := renderTableStyle([]string{"Stage", "Applications"}, rows, []columnAlignment{alignLeft, alignRight}, false)
	if strings.ContainsRune(plain, '╭') {
		t.Fatalf("expected ASCII table, got:\n%s", plain)
	}
	requireContains(t, plain, "Stage 1")
	requireContains(t, plain, "Rejected")
	requireContains(t, plain, "APPLICATIONS")

	rounded := renderTableStyle([]string{"Stage"}, [][]string{{"Stage 1"}}, nil, true)
	if !strings.ContainsRune(rounded, '╭') {
		t.Fatalf("expected rounded table, got:\n%s", rounded)
	}

	if got := renderTableStyle(nil, rows, nil, false); got != "" {
		t.Fatalf("expected empty output without headers, got %q", got)
	}
}
