package cache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeParams(t *testing.T) {
	type listParams struct {
		PageIndex int    `url:"PageIndex"`
		PageSize  int    `url:"PageSize"`
		Status    string `url:"status,omitempty"`
	}
	tests := []struct {
		name     string
		params   any
		expected string
	}{
		{
			name:     "nil",
			params:   nil,
			expected: "",
		},
		{
			name:     "query string is sorted",
			params:   "searchQuery=ali&page=1",
			expected: "page=1&searchQuery=ali",
		},
		{
			name:     "map insertion order is irrelevant",
			params:   map[string]string{"pageSize": "10", "page": "2"},
			expected: "page=2&pageSize=10",
		},
		{
			name:     "any values",
			params:   map[string]any{"active": true, "page": 1},
			expected: "active=true&page=1",
		},
		{
			name:     "url values",
			params:   url.Values{"b": {"2"}, "a": {"1"}},
			expected: "a=1&b=2",
		},
		{
			name:     "struct",
			params:   listParams{PageIndex: 1, PageSize: 10},
			expected: "PageIndex=1&PageSize=10",
		},
		{
			name:     "struct pointer",
			params:   &listParams{PageIndex: 3, PageSize: 5, Status: "pending"},
			expected: "PageIndex=3&PageSize=5&status=pending",
		},
		{
			name:     "nil struct pointer",
			params:   (*listParams)(nil),
			expected: "",
		},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				got, err := NormalizeParams(test.params)
				require.NoError(t, err)
				assert.Equal(t, test.expected, got)
			},
		)
	}
}

func TestNormalizeParamsHashesOtherValues(t *testing.T) {
	a, err := NormalizeParams([]int{1, 2, 3})
	require.NoError(t, err)
	b, err := NormalizeParams([]int{1, 2, 3})
	require.NoError(t, err)
	c, err := NormalizeParams([]int{3, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^h=[0-9a-f]+$`, a)
}

func TestKeyIdentity(t *testing.T) {
	a, err := NewKey("employee", OperationList, map[string]string{"page": "1", "pageSize": "10"})
	require.NoError(t, err)
	b, err := NewKey("employee", OperationList, "pageSize=10&page=1")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.WithScope("x"), b.WithScope("y"))
	assert.Equal(t, "employee:list:page=1&pageSize=10:x", a.WithScope("x").String())
	assert.Equal(t, "employee:list:page=1&pageSize=10:", a.WithScope("x").StorePrefix())
	assert.Equal(t, "employee:getById:id=7:s", DetailKey("employee", "7").WithScope("s").String())
}

func TestPredicates(t *testing.T) {
	list := Key{Resource: "employee", Operation: OperationList, Params: "page=1", Scope: "a"}
	detail := DetailKey("employee", "7").WithScope("a")
	otherDetail := DetailKey("employee", "8").WithScope("a")
	dept := Key{Resource: "department", Operation: OperationList, Params: "page=1", Scope: "a"}

	lists := MatchResource("employee", OperationList)
	assert.True(t, lists(list))
	assert.False(t, lists(detail))
	assert.False(t, lists(dept))

	all := MatchResource("employee")
	assert.True(t, all(list))
	assert.True(t, all(detail))
	assert.False(t, all(dept))

	seven := MatchDetail("employee", "7")
	assert.True(t, seven(detail))
	assert.True(t, seven(DetailKey("employee", "7").WithScope("b")))
	assert.False(t, seven(otherDetail))

	assert.True(t, MatchKey(list)(list.WithScope("b")))

	either := Any(lists, seven, nil)
	assert.True(t, either(list))
	assert.True(t, either(detail))
	assert.False(t, either(otherDetail))
	assert.False(t, Any()(list))
}
