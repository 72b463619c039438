package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/rdotsilva/fitnessblog/internal/models"
)

// IndexPost mirrors a post into the search index under its numeric id.
func IndexPost(ctx context.Context, es *elasticsearch.Client, index string, post *models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("es: json.Marshal failed: %w", err)
	}

	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(post.ID), 10)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: index failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index error: %s", res.Status())
	}
	return nil
}

func DeletePost(ctx context.Context, es *elasticsearch.Client, index string, postID uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(postID), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: delete failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es: delete error: %s", res.Status())
	}
	return nil
}

func SearchPosts(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Post, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "content"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
		"sort": []map[string]interface{}{
			{"date_posted": map[string]string{"order": "desc"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("es: search encode failed: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("es: search error: %s", strings.TrimSpace(string(msg)))
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Post `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	posts := make([]models.Post, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		posts[i] = hit.Source
	}
	return r.Hits.Total.Value, posts, nil
}
