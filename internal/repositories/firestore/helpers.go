package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"

	pfirestore "github.com/torunhut/api/internal/platform/firestore"
	"github.com/torunhut/api/internal/platform/pagination"
)

func normalisePageSize(size int) int {
	if size <= 0 {
		return pagination.DefaultPageSize
	}
	if size > pagination.DefaultMaxPageSize {
		return pagination.DefaultMaxPageSize
	}
	return size
}

// encodeCursor builds a page token from the (createdAt, id) sort key.
func encodeCursor(createdAt time.Time, id string) (string, error) {
	return pagination.EncodeToken(pagination.Cursor{
		StartAfter: []any{createdAt.UTC().Format(time.RFC3339Nano), id},
	})
}

// decodeCursor reverses encodeCursor. Timestamps round-trip through JSON as
// RFC 3339 strings, so they are parsed back before hitting Firestore.
func decodeCursor(token string) ([]any, error) {
	cursor, err := pagination.DecodeToken(token)
	if err != nil {
		return nil, err
	}
	values := cursor.StartAfter
	out := make([]any, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				out = append(out, ts)
				continue
			}
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func runCountAggregation(ctx context.Context, query firestore.Query, op string) (int, error) {
	result, err := query.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, pfirestore.WrapError(op, err)
	}
	value, ok := result["total"]
	if !ok {
		return 0, nil
	}
	count, ok := value.(*firestorepb.Value)
	if !ok {
		return 0, nil
	}
	return int(count.GetIntegerValue()), nil
}
