package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// DefaultTemplateName is the name the listing template is installed
// under.
const DefaultTemplateName = "real-estate-template"

// TemplateClient installs index templates. *opensearch.Client satisfies
// it.
type TemplateClient interface {
	PutIndexTemplate(ctx context.Context, name string, body io.Reader) error
}

// listingTemplate is the template body shared by every listing index:
// Romanian text analysis, knn enabled with the 1024-dimension listing
// vector, the vectorizer pipeline as default, raw scraped attributes kept
// but unindexed, and a relaxed refresh interval for bulk-heavy writes.
const listingTemplate = `{
  "settings": {
    "index": {
      "number_of_shards": "2",
      "number_of_replicas": "1",
      "refresh_interval": "30s",
      "knn": "true",
      "default_pipeline": "property-vectorizer-pipeline",
      "mapping": {
        "total_fields": {
          "limit": "2000"
        }
      },
      "analysis": {
        "filter": {
          "romanian_snowball": {
            "type": "snowball",
            "language": "Romanian"
          },
          "romanian_stop": {
            "type": "stop",
            "stopwords": "_romanian_"
          }
        },
        "analyzer": {
          "ro_analyzer": {
            "tokenizer": "standard",
            "filter": [
              "lowercase",
              "asciifolding",
              "romanian_stop",
              "romanian_snowball"
            ]
          }
        }
      }
    }
  },
  "mappings": {
    "dynamic_templates": [
      {
        "disable_dynamic_attrs": {
          "path_match": "attributes.*",
          "mapping": {
            "type": "object",
            "enabled": false
          }
        }
      }
    ],
    "properties": {
      "name": {"type": "text", "analyzer": "ro_analyzer"},
      "driver_title": {"type": "text", "analyzer": "ro_analyzer"},
      "description": {"type": "text", "analyzer": "ro_analyzer"},
      "listing_vector": {"type": "knn_vector", "dimension": 1024},
      "price": {"type": "long"},
      "currency": {"type": "keyword"},
      "categories": {"type": "keyword"},
      "image_tags": {"type": "keyword"},
      "location_1": {"type": "keyword"},
      "location_2": {"type": "keyword"},
      "location_3": {"type": "keyword"},
      "geo_location": {"type": "geo_point"},
      "visible": {"type": "boolean"},
      "valid_from": {"type": "date"},
      "processed_at": {"type": "date"},
      "attributes": {"type": "object", "enabled": false}
    }
  }
}`

// ListingTemplateBody builds the full index template document for the
// given index pattern.
func ListingTemplateBody(pattern string) ([]byte, error) {
	body := map[string]any{
		"index_patterns": []string{pattern},
		"template":       json.RawMessage(listingTemplate),
	}
	return json.Marshal(body)
}

// InstallListingTemplate installs the listing index template under name
// for indexes matching pattern. Existing templates with the same name are
// replaced, so re-running after a mapping change is the supported upgrade
// path; already-created indexes keep their old mapping and need a
// reindex.
func InstallListingTemplate(ctx context.Context, client TemplateClient, name, pattern string) error {
	if name == "" {
		name = DefaultTemplateName
	}
	if pattern == "" {
		return fmt.Errorf("index pattern is required")
	}

	body, err := ListingTemplateBody(pattern)
	if err != nil {
		return fmt.Errorf("building listing template: %w", err)
	}
	if err := client.PutIndexTemplate(ctx, name, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("installing listing template %q: %w", name, err)
	}
	return nil
}
