package backend

import (
	"chat-app/domain"
	"sync"
)

type Set map[string]struct{}

// Registry tracks the live watchers of every collection.
type Registry struct {
	mu                sync.RWMutex
	watchers          map[string]*Watcher // watcher ID -> sink
	collectionMembers map[string]Set      // collection -> watcher IDs
}

func NewRegistry() *Registry {
	return &Registry{
		watchers:          make(map[string]*Watcher),
		collectionMembers: make(map[string]Set),
	}
}

// WatchersOf returns the sinks subscribed to a collection, nil when there are none.
func (r *Registry) WatchersOf(collection string) []*Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.collectionMembers[collection]
	if !ok {
		return nil
	}
	var active []*Watcher
	for id := range members {
		if w, exists := r.watchers[id]; exists {
			active = append(active, w)
		}
	}
	return active
}

func (r *Registry) Subscribe(id, collection string, w *Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.watchers[id] = w
	if _, ok := r.collectionMembers[collection]; !ok {
		r.collectionMembers[collection] = make(Set)
	}
	r.collectionMembers[collection][id] = struct{}{}
}

// Unsubscribe removes a watcher and drops empty collections.
func (r *Registry) Unsubscribe(id, collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.watchers, id)
	if members, ok := r.collectionMembers[collection]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.collectionMembers, collection)
		}
	}
}

// Watcher is the delivery sink of one Watch call.
// It holds at most one pending snapshot: a newer snapshot replaces an
// undelivered one, since each snapshot is the complete collection.
type Watcher struct {
	Snapshots chan []domain.Message
}

func NewWatcher() *Watcher {
	return &Watcher{Snapshots: make(chan []domain.Message, 1)}
}

// Deliver never blocks. Callers must serialize Deliver for a given watcher.
func (w *Watcher) Deliver(snapshot []domain.Message) {
	for {
		select {
		case w.Snapshots <- snapshot:
			return
		default:
			select {
			case <-w.Snapshots:
			default:
			}
		}
	}
}
