// Package mappings holds the Elasticsearch index mappings owned by the
// indexer.
package mappings

// GetPropertyMapping returns the Elasticsearch mapping for the property index.
// Enumerations and facet fields are keywords; address text fields carry a
// keyword sub-field so they can be both searched and aggregated.
func GetPropertyMapping() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"id": map[string]any{
					"type": "keyword",
				},
				"title": map[string]any{
					"type": "text",
				},
				"description": map[string]any{
					"type": "text",
				},
				"price": map[string]any{
					"type": "double",
				},
				"currency": map[string]any{
					"type": "keyword",
				},
				"property_type": map[string]any{
					"type": "keyword",
				},
				"listing_type": map[string]any{
					"type": "keyword",
				},
				"status": map[string]any{
					"type": "keyword",
				},
				"bedrooms": map[string]any{
					"type": "integer",
				},
				"bathrooms": map[string]any{
					"type": "integer",
				},
				"floor_area": map[string]any{
					"type": "double",
				},
				"address": map[string]any{
					"properties": map[string]any{
						"street": map[string]any{
							"type": "text",
						},
						"city": map[string]any{
							"type":   "text",
							"fields": keywordSubField(),
						},
						"postcode": map[string]any{
							"type": "keyword",
						},
						"county": map[string]any{
							"type":   "text",
							"fields": keywordSubField(),
						},
						"country": map[string]any{
							"type":   "text",
							"fields": keywordSubField(),
						},
					},
				},
				"location": map[string]any{
					"type": "geo_point",
				},
				"features": map[string]any{
					"type":    "object",
					"dynamic": true,
				},
				"amenities": map[string]any{
					"type": "keyword",
				},
				"images": map[string]any{
					"properties": map[string]any{
						"url": map[string]any{
							"type": "keyword",
							// Image URLs are payload only, never searched.
							"index": false,
						},
						"is_main": map[string]any{
							"type": "boolean",
						},
					},
				},
				"owner": map[string]any{
					"properties": map[string]any{
						"id": map[string]any{
							"type": "keyword",
						},
						"name": map[string]any{
							"type": "text",
						},
					},
				},
				"view_count": map[string]any{
					"type": "long",
				},
				"created_at": map[string]any{
					"type": "date",
				},
				"updated_at": map[string]any{
					"type": "date",
				},
				"published_at": map[string]any{
					"type": "date",
				},
			},
		},
	}
}

func keywordSubField() map[string]any {
	return map[string]any{
		"keyword": map[string]any{
			"type": "keyword",
		},
	}
}
