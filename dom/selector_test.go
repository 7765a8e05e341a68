package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectorFixture = `
<div id="app" class="shell">
  <ul class="items">
    <li class="item first" data-k="alpha">1</li>
    <li class="item">2</li>
    <li class="item done" data-k="beta-x">3</li>
  </ul>
  <form><input type="checkbox" id="cb" checked><input id="off" disabled></form>
  <p>para</p><span>after</span>
</div>`

func ids(d *Document, nodes []NodeID) []string {
	var out []string
	for _, n := range nodes {
		if v, ok := d.GetAttribute(n, "id"); ok {
			out = append(out, v)
			continue
		}
		out = append(out, d.TextContent(n))
	}
	return out
}

func TestQuerySelectorAll(t *testing.T) {
	d := mustParse(t, selectorFixture)
	cases := []struct {
		sel  string
		want []string
	}{
		{"li.item", []string{"1", "2", "3"}},
		{"#app > ul > li:first-child", []string{"1"}},
		{"li:last-child", []string{"3"}},
		{"li:nth-child(odd)", []string{"1", "3"}},
		{"li:not(.done):not(.first)", []string{"2"}},
		{"[data-k^=al]", []string{"1"}},
		{"[data-k|=beta]", []string{"3"}},
		{"li.first + li", []string{"2"}},
		{"p ~ span", []string{"after"}},
		{"input:checked, input:disabled", []string{"cb", "off"}},
		{".shell li[data-k]", []string{"1", "3"}},
	}
	for _, tc := range cases {
		got, err := d.QuerySelectorAll(d.Root(), tc.sel)
		require.NoError(t, err, tc.sel)
		assert.Equal(t, tc.want, ids(d, got), tc.sel)
	}
}

func TestQuerySelectorInvalid(t *testing.T) {
	d := mustParse(t, selectorFixture)
	for _, sel := range []string{"", "li >", "[data-k", "li::before", "#"} {
		_, err := d.QuerySelector(d.Root(), sel)
		require.Error(t, err, sel)
		assert.Equal(t, "'"+sel+"' is not a valid selector", err.Error())
	}
}

func TestClosestAndMatches(t *testing.T) {
	d := mustParse(t, selectorFixture)
	li, err := d.QuerySelector(d.Root(), ".done")
	require.NoError(t, err)

	ul, err := d.Closest(li, "ul")
	require.NoError(t, err)
	assert.Equal(t, "ul", d.Node(ul).Tag)

	ok, err := d.MatchesSelector(li, "#app li")
	require.NoError(t, err)
	assert.True(t, ok)
}
