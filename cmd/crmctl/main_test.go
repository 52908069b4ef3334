package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

const leadsCSV = `name,email,phone,source,status,value,createdAt
Ann,ann@acme.io,555,Web,converted,100,2024-03-10
 Bob ,bob@acme.io,556,Referral,new,50,2024-03-12
Cid,cid@acme.io,557,Web,converted,25,2024-02-01
`

func writeLeads(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(leadsCSV), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, func() time.Time { return fixedNow })
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	input := writeLeads(t)

	out, err := execute(t, "query", "--entity", "leads", "--input", input, "--page-size", "2")
	require.NoError(t, err)

	var res struct {
		PageItems  []map[string]interface{} `json:"pageItems"`
		TotalCount int                      `json:"totalCount"`
		TotalPages int                      `json:"totalPages"`
		Metrics    map[string]float64       `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	require.Len(t, res.PageItems, 2)
	assert.Equal(t, "Bob", res.PageItems[0]["name"], "default sort is newest first and values are trimmed")
	assert.Equal(t, "Ann", res.PageItems[1]["name"])
	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 3.0, res.Metrics["totalLeads"])
	assert.Equal(t, 2.0, res.Metrics["newThisMonth"])
	assert.InDelta(t, 200.0/3, res.Metrics["conversionRate"], 1e-9)
	assert.Equal(t, 175.0, res.Metrics["pipelineValue"])
}

func TestQueryWithViewFile(t *testing.T) {
	input := writeLeads(t)
	view := filepath.Join(t.TempDir(), "view.json")
	require.NoError(t, os.WriteFile(view, []byte(`{
		"criteria": {"categoryFilter": "web"},
		"sort": {"key": "value", "direction": "asc"},
		"page": {"page": 0, "pageSize": 0}
	}`), 0644))

	out, err := execute(t, "query", "-e", "leads", "-i", input, "--view", view)
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Cid"), strings.Index(out, "Ann"))
	assert.NotContains(t, out, "Bob")
}

func TestExportCommand(t *testing.T) {
	input := writeLeads(t)
	dir := t.TempDir()

	out, err := execute(t, "export", "--entity", "leads", "--input", input, "--search", "ann", "--out", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "leads_export_2024-03-15.csv")
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Name,Email,Phone,Source,Status,Value,Created\nAnn,ann@acme.io,555,Web,converted,100,2024-03-10", string(data))

	_, err = execute(t, "export", "--entity", "leads", "--input", input, "--format", "xlsx", "--out", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "leads_export_2024-03-15.xlsx"))
}

func TestCommandErrors(t *testing.T) {
	input := writeLeads(t)

	_, err := execute(t, "query", "--entity", "deals", "--input", input)
	assert.ErrorContains(t, err, "deals")

	_, err = execute(t, "export", "--entity", "leads", "--input", input, "--format", "pdf")
	assert.ErrorContains(t, err, "unsupported export format")

	_, err = execute(t, "query", "--entity", "leads", "--input", input, "--date", "lastYear")
	assert.Error(t, err)

	_, err = execute(t, "query", "--entity", "leads")
	assert.Error(t, err)
}

func TestEntitiesCommand(t *testing.T) {
	out, err := execute(t, "entities")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "cases"))
	assert.Contains(t, out, "closed_cases")
}
