package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/localcache"
	"github.com/warungclub/warung/pkg/event"
)

// MasterDataSyncer replicates master-data documents (menu, categories,
// ingredients, profile) across the branch's terminals. Each push carries a
// full replacement document; receivers overwrite their copy, so the last
// writer wins. Timestamp versions guard against applying an event that was
// delayed past a newer push.
type MasterDataSyncer struct {
	mu         sync.RWMutex
	branchID   uuid.UUID
	terminalID string
	docs       map[string]masterDoc

	publisher events.Publisher
	cache     *localcache.Cache
	logger    apt.Logger
}

type masterDoc struct {
	Version int64           `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

func NewMasterDataSyncer(branchID uuid.UUID, terminalID string, publisher events.Publisher, cache *localcache.Cache, logger apt.Logger) *MasterDataSyncer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MasterDataSyncer{
		branchID:   branchID,
		terminalID: terminalID,
		docs:       make(map[string]masterDoc),
		publisher:  publisher,
		cache:      cache,
		logger:     logger,
	}
}

// Push stores the document locally and announces it to the branch's other
// terminals.
func (m *MasterDataSyncer) Push(ctx context.Context, kind string, payload json.RawMessage) error {
	version := time.Now().UnixMilli()

	m.mu.Lock()
	if current, ok := m.docs[kind]; ok && current.Version >= version {
		// Same-millisecond push; keep versions strictly increasing.
		version = current.Version + 1
	}
	m.docs[kind] = masterDoc{Version: version, Payload: payload}
	m.mu.Unlock()

	m.persist()

	if m.publisher == nil {
		return nil
	}

	evt := event.MasterDataEvent{
		EventType:  event.EventMasterDataUpdated,
		OccurredAt: time.Now().UTC(),
		BranchID:   m.branchID.String(),
		Kind:       kind,
		Version:    version,
		TerminalID: m.terminalID,
		Payload:    payload,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("cannot marshal master data event: %w", err)
	}
	if err := m.publisher.Publish(ctx, event.MasterDataTopic, data); err != nil {
		return fmt.Errorf("cannot publish master data event: %w", err)
	}

	m.logger.Info("master data pushed", "kind", kind, "version", version)
	return nil
}

// Apply ingests a received master-data event. Events from this terminal,
// other branches, or older than the held version are ignored.
func (m *MasterDataSyncer) Apply(evt event.MasterDataEvent) bool {
	if evt.TerminalID != "" && evt.TerminalID == m.terminalID {
		return false
	}
	if evt.BranchID != m.branchID.String() {
		return false
	}

	m.mu.Lock()
	current, ok := m.docs[evt.Kind]
	if ok && current.Version >= evt.Version {
		m.mu.Unlock()
		m.logger.Debug("stale master data event ignored",
			"kind", evt.Kind,
			"held_version", current.Version,
			"event_version", evt.Version,
		)
		return false
	}
	m.docs[evt.Kind] = masterDoc{Version: evt.Version, Payload: evt.Payload}
	m.mu.Unlock()

	m.persist()
	m.logger.Info("master data applied", "kind", evt.Kind, "version", evt.Version)
	return true
}

// Seed stores a document loaded from the central store without announcing
// it to other terminals. A copy already held with a newer version is kept.
func (m *MasterDataSyncer) Seed(kind string, payload json.RawMessage) {
	version := time.Now().UnixMilli()

	m.mu.Lock()
	if current, ok := m.docs[kind]; ok && current.Version >= version {
		m.mu.Unlock()
		return
	}
	m.docs[kind] = masterDoc{Version: version, Payload: payload}
	m.mu.Unlock()

	m.persist()
}

// Get returns the held document and its version for one kind.
func (m *MasterDataSyncer) Get(kind string) (json.RawMessage, int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[kind]
	if !ok {
		return nil, 0, false
	}
	return doc.Payload, doc.Version, true
}

// Warm loads the documents staged in the durable cache.
func (m *MasterDataSyncer) Warm() error {
	if m.cache == nil {
		return nil
	}

	var docs map[string]masterDoc
	found, err := m.cache.Get(m.cacheKey(), &docs)
	if err != nil {
		return fmt.Errorf("cannot load cached master data: %w", err)
	}
	if !found {
		return nil
	}

	m.mu.Lock()
	m.docs = docs
	m.mu.Unlock()

	m.logger.Info("master data warmed from local cache", "kinds", len(docs))
	return nil
}

func (m *MasterDataSyncer) persist() {
	if m.cache == nil {
		return
	}

	m.mu.RLock()
	docs := make(map[string]masterDoc, len(m.docs))
	for k, d := range m.docs {
		docs[k] = d
	}
	m.mu.RUnlock()

	if err := m.cache.Put(m.cacheKey(), docs); err != nil {
		m.logger.Error("cannot persist master data", "error", err)
	}
}

func (m *MasterDataSyncer) cacheKey() string {
	return localcache.BranchKey(m.branchID, "masterdata")
}

// MasterDataSubscriber feeds received master-data events into the syncer.
type MasterDataSubscriber struct {
	subscriber events.Subscriber
	syncer     *MasterDataSyncer
	logger     apt.Logger
}

func NewMasterDataSubscriber(sub events.Subscriber, syncer *MasterDataSyncer, logger apt.Logger) *MasterDataSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MasterDataSubscriber{
		subscriber: sub,
		syncer:     syncer,
		logger:     logger,
	}
}

func (s *MasterDataSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting master data subscriber", "topic", event.MasterDataTopic)
	if s.subscriber == nil {
		return fmt.Errorf("master data subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.MasterDataTopic, s.handleEvent)
}

func (s *MasterDataSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.MasterDataEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid master data event", "error", err)
		return nil
	}
	s.syncer.Apply(evt)
	return nil
}
