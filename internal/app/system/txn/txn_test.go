package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/commonroom/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":                  {nil, false},
		"unrelated":            {errors.New("connection reset by peer"), false},
		"standalone code 20":   {mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		"code 51":              {mongo.CommandError{Code: 51}, true},
		"code 263":             {mongo.CommandError{Code: 263}, true},
		"duplicate key":        {mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		"wrapped command":      {fmt.Errorf("create community: %w", mongo.CommandError{Code: 20}), true},
		"replica set message":  {errors.New("this MongoDB deployment does not support transactions: not a replica set"), true},
		"sessions unsupported": {errors.New("sessions are not supported by this server"), true},
		"transaction alone":    {errors.New("transaction aborted"), false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := IsNotSupported(tc.err); got != tc.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRun_WritesBothDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := db.Collection("a").InsertOne(ctx, bson.M{"n": 1}); err != nil {
			return err
		}
		_, err := db.Collection("b").InsertOne(ctx, bson.M{"n": 2})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, coll := range []string{"a", "b"} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 1 {
			t.Errorf("%s: expected 1 document, got %d", coll, n)
		}
	}
}

func TestRun_ReturnsCallbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestIsNotSupported_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "uppercase TRANSACTION and REPLICA SET",
			err:  errors.New("TRANSACTION FAILED on REPLICA SET"),
			want: true,
		},
		{
			name: "mixed case Transaction and Session",
			err:  errors.New("Transaction Session error"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotSupported(tt.err)
			if got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
