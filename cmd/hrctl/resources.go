package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"

	"github.com/hrdesk/viewsync"
)

// record is an entity of any resource, decoded as a JSON object
type record map[string]any

func recordID(r record) string {
	for _, k := range []string{"id", "Id", "ID"} {
		if v, ok := r[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

type resourceDef struct {
	name string
	path string
}

// cacheName is the resource name used in cache keys, e.g. "Employee"
func (d resourceDef) cacheName() string {
	return strings.TrimPrefix(d.path, "/")
}

var resources = []resourceDef{
	{name: "admins", path: "/Admin"},
	{name: "employees", path: "/Employee"},
	{name: "managers", path: "/Manager"},
	{name: "departments", path: "/Department"},
	{name: "sub-departments", path: "/SubDepartment"},
	{name: "devices", path: "/Devices"},
	{name: "official-vacations", path: "/OfficialVacation"},
	{name: "attendance", path: "/Attendance"},
	{name: "leave-requests", path: "/LeaveRequests"},
}

func resourceNames() []string {
	names := make([]string, len(resources))
	for i, r := range resources {
		names[i] = r.name
	}
	return names
}

// findResource returns the resource whose name matches q best
func findResource(q string) (resourceDef, error) {
	names := resourceNames()
	for i, n := range names {
		if strings.EqualFold(n, q) {
			return resources[i], nil
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(q, names)
	if len(ranks) == 0 {
		return resourceDef{}, errors.Errorf(
			"unknown resource %q, expected one of: %s", q, strings.Join(names, ", "),
		)
	}
	sort.Sort(ranks)
	return resources[ranks[0].OriginalIndex], nil
}

func (d resourceDef) bind(c *viewsync.Client) *viewsync.Resource[record] {
	return viewsync.RESTResource(c, d.cacheName(), d.path, "", recordID)
}
