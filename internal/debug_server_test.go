package internal

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestDefaultMapper(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want InspectRow
	}{
		{
			name: "Document key",
			key:  "doc:messages:1704110400000000000:0f8fad5b-d9cb-469f-a165-70867728950e",
			want: InspectRow{
				Key: "doc:messages:1704110400000000000:0f8fad5b-d9cb-469f-a165-70867728950e", Type: "DOC",
				Timestamp: "12:00:00", EntityID: "0f8fad5b", Collection: "messages", Detail: "Size: 2 bytes",
			},
		},
		{
			name: "User key",
			key:  "user:alice@chatapp.local",
			want: InspectRow{
				Key: "user:alice@chatapp.local", Type: "USER",
				Timestamp: "--:--:--", EntityID: "alice@chatapp.local", Collection: "-", Detail: "Size: 2 bytes",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DefaultMapper(tt.key, []byte("{}")))
		})
	}
}

func TestInspectHandler_Lists_Prefix(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	req.NoError(db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("user:alice@chatapp.local"), []byte("{}")); err != nil {
			return err
		}
		return txn.Set([]byte("objmeta:messages/1-alice.jpg"), []byte("{}"))
	}))

	rec := httptest.NewRecorder()
	InspectHandler(db, nil, func() map[string]any { return map[string]any{"Mode": "test"} }).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/inspect?prefix=user:", nil))

	req.Equal(http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	req.NoError(err)
	req.Contains(string(body), "alice@chatapp.local")
	req.NotContains(string(body), "messages/1-alice.jpg")
	req.Contains(string(body), "Mode: test")
}
