package opensearch

import "github.com/casalio/revec/core"

// Document field names in the listing indexes.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldDriverTitle = "driver_title"
	fieldStatus      = "embedding_status"
	fieldVector      = "listing_vector"
	fieldPhone       = "decrypted_phone"
)

// candidateQuery matches listings whose last embedding attempt failed or
// whose vector was never stored.
func candidateQuery() map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				termQuery(fieldStatus, string(core.StatusFailed)),
				map[string]any{
					"bool": map[string]any{
						"must_not": existsQuery(fieldVector),
					},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

func termQuery(field, value string) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}

func existsQuery(field string) map[string]any {
	return map[string]any{"exists": map[string]any{"field": field}}
}

func missingFieldQuery(field string) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"must_not": existsQuery(field),
		},
	}
}

func matchAllQuery() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}
