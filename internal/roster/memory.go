package roster

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gatehouse/pkg/sentinel"
)

// MemoryStore keeps all four record sets behind one mutex, which makes the
// cross-table promote operations trivially atomic. Used in tests and local
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	pending map[Identity]PendingRecord
	manual  map[Identity]ManualRecord
	members map[Identity]MemberRecord
	extras  map[Identity]ExtraRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pending: make(map[Identity]PendingRecord),
		manual:  make(map[Identity]ManualRecord),
		members: make(map[Identity]MemberRecord),
		extras:  make(map[Identity]ExtraRecord),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Pending(_ context.Context, id Identity) (*PendingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.pending[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) InsertPending(_ context.Context, rec PendingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[rec.Identity]; ok {
		return sentinel.ErrConflict
	}
	rec.Shortcode = strings.ToLower(rec.Shortcode)
	s.pending[rec.Identity] = rec
	return nil
}

func (s *MemoryStore) DeletePending(_ context.Context, id Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	delete(s.pending, id)
	return ok, nil
}

func (s *MemoryStore) AllPending(_ context.Context) ([]PendingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PendingRecord, 0, len(s.pending))
	for _, rec := range s.pending {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

func (s *MemoryStore) CountPending(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.pending)), nil
}

func (s *MemoryStore) Manual(_ context.Context, id Identity) (*ManualRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.manual[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) InsertManual(_ context.Context, rec ManualRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.manual[rec.Identity]; ok {
		return sentinel.ErrConflict
	}
	rec.Shortcode = strings.ToLower(rec.Shortcode)
	s.manual[rec.Identity] = rec
	return nil
}

func (s *MemoryStore) DeleteManual(_ context.Context, id Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.manual[id]
	delete(s.manual, id)
	return ok, nil
}

func (s *MemoryStore) AllManual(_ context.Context) ([]ManualRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ManualRecord, 0, len(s.manual))
	for _, rec := range s.manual {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

func (s *MemoryStore) CountManual(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.manual)), nil
}

func (s *MemoryStore) Member(_ context.Context, id Identity) (*MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.members[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) MemberByShortcode(_ context.Context, shortcode string) (*MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shortcode = strings.ToLower(shortcode)
	for _, rec := range s.members {
		if rec.Shortcode == shortcode {
			return &rec, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) InsertMember(_ context.Context, rec MemberRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMemberLocked(rec)
}

func (s *MemoryStore) insertMemberLocked(rec MemberRecord) error {
	if _, ok := s.members[rec.Identity]; ok {
		return sentinel.ErrConflict
	}
	rec.Shortcode = strings.ToLower(rec.Shortcode)
	s.members[rec.Identity] = rec
	return nil
}

func (s *MemoryStore) DeleteMember(_ context.Context, id Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[id]
	delete(s.members, id)
	return ok, nil
}

func (s *MemoryStore) UpdateMemberNickname(_ context.Context, id Identity, nickname string) (bool, error) {
	return s.updateMember(id, func(rec *MemberRecord) { rec.Nickname = nickname })
}

func (s *MemoryStore) UpdateMemberShortcode(_ context.Context, id Identity, shortcode string) (bool, error) {
	return s.updateMember(id, func(rec *MemberRecord) { rec.Shortcode = strings.ToLower(shortcode) })
}

func (s *MemoryStore) UpdateMemberFresher(_ context.Context, id Identity, fresher FresherStatus) (bool, error) {
	return s.updateMember(id, func(rec *MemberRecord) { rec.Fresher = fresher })
}

func (s *MemoryStore) updateMember(id Identity, apply func(*MemberRecord)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.members[id]
	if !ok {
		return false, nil
	}
	apply(&rec)
	s.members[id] = rec
	return true, nil
}

func (s *MemoryStore) AllMembers(_ context.Context) ([]MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MemberRecord, 0, len(s.members))
	for _, rec := range s.members {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

func (s *MemoryStore) CountMembers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.members)), nil
}

func (s *MemoryStore) PromotePending(_ context.Context, id Identity, nickname string, fresher FresherStatus) (*MemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.pending[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	member := MemberRecord{
		Identity:  id,
		Shortcode: src.Shortcode,
		Nickname:  nickname,
		Realname:  src.Realname,
		Fresher:   fresher,
	}
	if err := s.insertMemberLocked(member); err != nil {
		return nil, err
	}
	delete(s.pending, id)
	return &member, nil
}

func (s *MemoryStore) PromoteManual(_ context.Context, id Identity) (*MemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.manual[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	member := MemberRecord{
		Identity:  id,
		Shortcode: src.Shortcode,
		Nickname:  src.Nickname,
		Realname:  src.Realname,
		Fresher:   src.Fresher,
	}
	if err := s.insertMemberLocked(member); err != nil {
		return nil, err
	}
	delete(s.manual, id)
	return &member, nil
}

func (s *MemoryStore) Extra(_ context.Context, id Identity) (*ExtraRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.extras[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) InsertExtra(_ context.Context, rec ExtraRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.extras[rec.Identity]; ok {
		return sentinel.ErrConflict
	}
	s.extras[rec.Identity] = rec
	return nil
}

func (s *MemoryStore) DeleteExtra(_ context.Context, id Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.extras[id]
	delete(s.extras, id)
	return ok, nil
}

func (s *MemoryStore) UpdateExtraName(_ context.Context, id Identity, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.extras[id]
	if !ok {
		return false, nil
	}
	rec.Name = name
	s.extras[id] = rec
	return true, nil
}

func (s *MemoryStore) UpdateExtraInstitution(_ context.Context, id Identity, institution string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.extras[id]
	if !ok {
		return false, nil
	}
	rec.Institution = institution
	s.extras[id] = rec
	return true, nil
}

func (s *MemoryStore) AllExtras(_ context.Context) ([]ExtraRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExtraRecord, 0, len(s.extras))
	for _, rec := range s.extras {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

func (s *MemoryStore) CountExtras(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.extras)), nil
}
