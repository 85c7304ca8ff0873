package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindResource(t *testing.T) {
	tests := map[string]string{
		"employees":   "employees",
		"Employees":   "employees",
		"emp":         "employees",
		"dep":         "departments",
		"subdep":      "sub-departments",
		"leave":       "leave-requests",
		"vacations":   "official-vacations",
		"attendance":  "attendance",
		"mgr":         "managers",
		"sub-departm": "sub-departments",
	}
	for q, want := range tests {
		t.Run(
			q, func(t *testing.T) {
				def, err := findResource(q)
				require.NoError(t, err)
				assert.Equal(t, want, def.name)
			},
		)
	}
	_, err := findResource("payroll")
	assert.Error(t, err)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "7", recordID(record{"id": float64(7)}))
	assert.Equal(t, "abc", recordID(record{"Id": "abc"}))
	assert.Equal(t, "", recordID(record{"name": "x"}))
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(
		"GET /Employee", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "ali", r.URL.Query().Get("SearchByName"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(
				[]byte(`{"data":{"employees":[{"id":7,"name":"Ali"}],` +
					`"metadata":{"searchBy":["SearchByName"],"pagination":{"pageIndex":1,"totalPages":2,"totalRecords":11}}}}`),
			)
		},
	)
	mux.HandleFunc(
		"GET /Employee/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.PathValue("id") != "7" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"message":"Employee not found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":{"id":7,"name":"Ali"}}`))
		},
	)
	mux.HandleFunc(
		"DELETE /Employee/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"Deleted successfully | تم الحذف بنجاح"}`))
		},
	)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommands(t *testing.T) {
	srv := newBackend(t)
	base := []string{"--base-url", srv.URL, "--token", "secret"}

	_, stderr, err := run(t, append([]string{"list", "emp", "--search", "ali"}, base...)...)
	require.NoError(t, err)
	assert.Equal(t, "employees: page 1 of 2 (11 records)\n", stderr)

	_, _, err = run(t, append([]string{"get", "employees", "7"}, base...)...)
	require.NoError(t, err)

	stdout, _, err := run(t, append([]string{"get", "employees", "8"}, base...)...)
	require.NoError(t, err)
	assert.Equal(t, "No data found\n", stdout)

	_, _, err = run(t, append([]string{"delete", "employees", "7"}, base...)...)
	require.NoError(t, err)

	stdout, _, err = run(t, append([]string{"get", "employees", "8", "--locale", "ar"}, base...)...)
	require.NoError(t, err)
	assert.Equal(t, "لا توجد بيانات\n", stdout)

	t.Setenv("HRCTL_TOKEN", "")
	_, _, err = run(t, "list", "employees", "--base-url", srv.URL)
	assert.Error(t, err)
}
