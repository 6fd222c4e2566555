package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"
)

// ============================================================
// Generic row helpers for GET, POST, PATCH, DELETE
// ============================================================

const returnRepresentation = "return=representation"

func decodeRows[T any](body []byte, table string) ([]T, error) {
	rows := []T{}
	if len(body) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &resilience.Permanent{Err: fmt.Errorf("decode %s: %w", table, err)}
	}
	return rows, nil
}

// selectRows fetches every row matching query from table.
func selectRows[T any](ctx context.Context, c *Client, table string, query url.Values) ([]T, error) {
	var rows []T
	err := c.call(ctx, "select_"+table, func(ctx context.Context) error {
		body, err := c.do(ctx, http.MethodGet, table+"?"+query.Encode(), nil, "")
		if err != nil {
			return err
		}
		rows, err = decodeRows[T](body, table)
		return err
	})
	return rows, err
}

// selectOne fetches a single row; no match is *domain.ErrNotFound.
func selectOne[T any](ctx context.Context, c *Client, table, resource, id string, query url.Values) (*T, error) {
	query.Set("limit", "1")
	rows, err := selectRows[T](ctx, c, table, query)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return &rows[0], nil
}

// insertRow posts row and returns the stored representation.
func insertRow[T any](ctx context.Context, c *Client, table string, row any) (*T, error) {
	var out *T
	err := c.call(ctx, "insert_"+table, func(ctx context.Context) error {
		body, err := c.do(ctx, http.MethodPost, table, row, returnRepresentation)
		if err != nil {
			return err
		}
		rows, err := decodeRows[T](body, table)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &resilience.Permanent{Err: fmt.Errorf("insert %s returned no row", table)}
		}
		out = &rows[0]
		return nil
	})
	return out, err
}

// updateRows patches the rows matching query. Zero rows touched is
// *domain.ErrNotFound.
func updateRows[T any](ctx context.Context, c *Client, table, resource, id string, query url.Values, patch any) (*T, error) {
	var out *T
	err := c.call(ctx, "update_"+table, func(ctx context.Context) error {
		body, err := c.do(ctx, http.MethodPatch, table+"?"+query.Encode(), patch, returnRepresentation)
		if err != nil {
			return err
		}
		rows, err := decodeRows[T](body, table)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &resilience.Permanent{Err: &domain.ErrNotFound{Resource: resource, ID: id}}
		}
		out = &rows[0]
		return nil
	})
	return out, err
}

// deleteRows removes the rows matching query. Zero rows removed is
// *domain.ErrNotFound.
func deleteRows(ctx context.Context, c *Client, table, resource, id string, query url.Values) error {
	return c.call(ctx, "delete_"+table, func(ctx context.Context) error {
		body, err := c.do(ctx, http.MethodDelete, table+"?"+query.Encode(), nil, returnRepresentation)
		if err != nil {
			return err
		}
		rows, err := decodeRows[json.RawMessage](body, table)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &resilience.Permanent{Err: &domain.ErrNotFound{Resource: resource, ID: id}}
		}
		return nil
	})
}

// owned builds the user_id + id filter every scoped lookup uses.
func owned(userID, id string) url.Values {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	if id != "" {
		q.Set("id", "eq."+id)
	}
	return q
}
