package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_Build(t *testing.T) {
	q, params := NewQuery("food").
		Eq("_id", "abc").
		First().
		Project("_id", "name", `"imageUrl": image.asset->url`).
		Build()

	assert.Equal(t, `*[_type == $p0 && _id == $p1][0]{_id, name, "imageUrl": image.asset->url}`, q)
	assert.Equal(t, map[string]any{"p0": "food", "p1": "abc"}, params)
}

func TestQuery_PrefixEscapesUserInput(t *testing.T) {
	q, params := NewQuery("food").Prefix("name", `x" || true || "`).Build()

	assert.Equal(t, `*[_type == $p0 && name match $p1]`, q)
	assert.Equal(t, `x" || true || "*`, params["p1"])
}

func TestQuery_EmptyPrefixMatchesAll(t *testing.T) {
	q, params := NewQuery("food").Prefix("name", "").Build()
	assert.Equal(t, `*[_type == $p0]`, q)
	assert.Len(t, params, 1)
}

func TestQuery_SimilarShape(t *testing.T) {
	q, params := NewQuery("food").
		Neq("_id", "f1").
		Contains("tags", "spicy").
		Slice(0, 4).
		Project("_id").
		Build()

	assert.Equal(t, `*[_type == $p0 && _id != $p1 && $p2 in tags][0...4]{_id}`, q)
	assert.Equal(t, "spicy", params["p2"])
}

func TestQuery_BuildPaged(t *testing.T) {
	q, _ := NewQuery("food").
		Prefix("name", "chick").
		OrderBy("name asc").
		Slice(20, 40).
		Project("_id").
		BuildPaged()

	assert.Equal(t,
		`{"total": count(*[_type == $p0 && name match $p1]), "items": *[_type == $p0 && name match $p1] | order(name asc)[20...40]{_id}}`,
		q)
}
