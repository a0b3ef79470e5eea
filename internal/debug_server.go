package internal

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type InspectRow struct {
	Key        string
	Type       string
	Timestamp  string
	EntityID   string
	Collection string
	Detail     string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

const defaultPrefix = "doc:"

var inspectPage = template.Must(template.New("inspect").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>inspect {{.Prefix}}</title>
<style>body{font-family:monospace}td,th{padding:2px 8px;text-align:left}</style></head>
<body>
<form><input name="prefix" value="{{.Prefix}}"><button>inspect</button></form>
<ul>{{range $k, $v := .Stats}}<li>{{$k}}: {{$v}}</li>{{end}}</ul>
<table>
<tr><th>type</th><th>collection</th><th>time</th><th>id</th><th>detail</th><th>key</th></tr>
{{range .Items}}<tr><td>{{.Type}}</td><td>{{.Collection}}</td><td>{{.Timestamp}}</td><td>{{.EntityID}}</td><td>{{.Detail}}</td><td>{{.Key}}</td></tr>
{{end}}</table>
</body></html>`))

// InspectHandler renders the keys of db under the ?prefix= query parameter.
// It is a read-only view meant for local debugging.
func InspectHandler(db *badger.DB, mapper RowMapper, statsProvider StatsProvider) http.HandlerFunc {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = defaultPrefix
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				if err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = inspectPage.Execute(w, data)
	}
}

// DefaultMapper understands document keys (doc:<collection>:<unixnano>:<id>)
// and shows any other key as a raw entry.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.SplitN(key, ":", 4)
	row := InspectRow{
		Key:        key,
		Type:       strings.ToUpper(parts[0]),
		Timestamp:  "--:--:--",
		EntityID:   "--------",
		Collection: "-",
		Detail:     "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	if len(parts) == 4 && parts[0] == "doc" {
		row.Collection = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
		row.EntityID = parts[3]
		if len(row.EntityID) > 8 {
			row.EntityID = row.EntityID[:8]
		}
	} else if len(parts) > 1 {
		row.EntityID = strings.Join(parts[1:], ":")
	}
	return row
}
