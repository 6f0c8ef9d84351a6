package application

import (
	"context"
	"sort"
	"time"
)

type claimStoreStub struct {
	claims   map[string]AdminClaim
	setErr   error
	getErr   error
	clearErr error
}

func newClaimStoreStub() *claimStoreStub {
	return &claimStoreStub{claims: make(map[string]AdminClaim)}
}

func (s *claimStoreStub) SetAdminClaim(_ context.Context, claim AdminClaim) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.claims[claim.UID] = claim
	return nil
}

func (s *claimStoreStub) GetAdminClaim(_ context.Context, uid string) (AdminClaim, error) {
	if s.getErr != nil {
		return AdminClaim{}, s.getErr
	}
	claim, ok := s.claims[uid]
	if !ok {
		return AdminClaim{}, ErrNotFound
	}
	return claim, nil
}

func (s *claimStoreStub) ClearAdminClaim(_ context.Context, uid string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	if _, ok := s.claims[uid]; !ok {
		return ErrNotFound
	}
	delete(s.claims, uid)
	return nil
}

type rateLimitStoreStub struct {
	records      map[string]RateLimitRecord
	getErr       error
	startErr     error
	incrementErr error
	lockErr      error
	clearErr     error
}

func newRateLimitStoreStub() *rateLimitStoreStub {
	return &rateLimitStoreStub{records: make(map[string]RateLimitRecord)}
}

func (s *rateLimitStoreStub) GetRateLimit(_ context.Context, uid string) (RateLimitRecord, error) {
	if s.getErr != nil {
		return RateLimitRecord{}, s.getErr
	}
	record, ok := s.records[uid]
	if !ok {
		return RateLimitRecord{}, ErrNotFound
	}
	return record, nil
}

func (s *rateLimitStoreStub) StartWindow(_ context.Context, uid string, at time.Time) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.records[uid] = RateLimitRecord{UID: uid, Attempts: 1, WindowStart: at}
	return nil
}

func (s *rateLimitStoreStub) IncrementAttempts(_ context.Context, uid string) error {
	if s.incrementErr != nil {
		return s.incrementErr
	}
	record := s.records[uid]
	record.UID = uid
	record.Attempts++
	s.records[uid] = record
	return nil
}

func (s *rateLimitStoreStub) LockOut(_ context.Context, uid string, until time.Time) error {
	if s.lockErr != nil {
		return s.lockErr
	}
	record := s.records[uid]
	record.UID = uid
	record.LockedUntil = &until
	s.records[uid] = record
	return nil
}

func (s *rateLimitStoreStub) ClearRateLimit(_ context.Context, uid string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	delete(s.records, uid)
	return nil
}

type auditLogStub struct {
	entries   []AuditEntry
	appendErr error
}

func (s *auditLogStub) AppendAuditEntry(_ context.Context, entry AuditEntry) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *auditLogStub) actions() []string {
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type adminVerifierStub struct {
	err   error
	calls int
}

func (s *adminVerifierStub) VerifyAdminAccess(context.Context, string) error {
	s.calls++
	return s.err
}

type identityStoreStub struct {
	identities map[string]Identity
	createErr  error
	getErr     error
}

func newIdentityStoreStub() *identityStoreStub {
	return &identityStoreStub{identities: make(map[string]Identity)}
}

func (s *identityStoreStub) CreateIdentity(_ context.Context, identity Identity) (Identity, error) {
	if s.createErr != nil {
		return Identity{}, s.createErr
	}
	s.identities[identity.Token] = identity
	return identity, nil
}

func (s *identityStoreStub) GetIdentityByToken(_ context.Context, token string) (Identity, error) {
	if s.getErr != nil {
		return Identity{}, s.getErr
	}
	identity, ok := s.identities[token]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return identity, nil
}

type jamStoreStub struct {
	jams      map[string]Jam
	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func newJamStoreStub() *jamStoreStub {
	return &jamStoreStub{jams: make(map[string]Jam)}
}

func (s *jamStoreStub) seed(jams ...Jam) {
	for _, jam := range jams {
		s.jams[jam.ID] = jam
	}
}

func (s *jamStoreStub) CreateJam(_ context.Context, jam Jam) (Jam, error) {
	if s.createErr != nil {
		return Jam{}, s.createErr
	}
	s.jams[jam.ID] = jam
	return jam, nil
}

func (s *jamStoreStub) GetJam(_ context.Context, id string) (Jam, error) {
	jam, ok := s.jams[id]
	if !ok {
		return Jam{}, ErrNotFound
	}
	return jam, nil
}

func (s *jamStoreStub) UpdateJam(_ context.Context, jam Jam) (Jam, error) {
	if s.updateErr != nil {
		return Jam{}, s.updateErr
	}
	if _, ok := s.jams[jam.ID]; !ok {
		return Jam{}, ErrNotFound
	}
	s.jams[jam.ID] = jam
	return jam, nil
}

func (s *jamStoreStub) DeleteJam(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.jams[id]; !ok {
		return ErrNotFound
	}
	delete(s.jams, id)
	return nil
}

func (s *jamStoreStub) ListJams(_ context.Context) ([]Jam, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	jams := make([]Jam, 0, len(s.jams))
	for _, jam := range s.jams {
		jams = append(jams, jam)
	}
	sort.Slice(jams, func(i, j int) bool { return jams[i].ID < jams[j].ID })
	return jams, nil
}

type siteConfigStoreStub struct {
	cfg    *SiteConfig
	getErr error
	setErr error
}

func (s *siteConfigStoreStub) GetSiteConfig(context.Context) (SiteConfig, error) {
	if s.getErr != nil {
		return SiteConfig{}, s.getErr
	}
	if s.cfg == nil {
		return SiteConfig{}, ErrNotFound
	}
	return *s.cfg, nil
}

func (s *siteConfigStoreStub) SetSiteConfig(_ context.Context, cfg SiteConfig) (SiteConfig, error) {
	if s.setErr != nil {
		return SiteConfig{}, s.setErr
	}
	s.cfg = &cfg
	return cfg, nil
}

type venueStoreStub struct {
	venues    map[string]Venue
	createErr error
}

func newVenueStoreStub() *venueStoreStub {
	return &venueStoreStub{venues: make(map[string]Venue)}
}

func (s *venueStoreStub) CreateVenue(_ context.Context, venue Venue) (Venue, error) {
	if s.createErr != nil {
		return Venue{}, s.createErr
	}
	s.venues[venue.ID] = venue
	return venue, nil
}

func (s *venueStoreStub) GetVenue(_ context.Context, id string) (Venue, error) {
	venue, ok := s.venues[id]
	if !ok {
		return Venue{}, ErrNotFound
	}
	return venue, nil
}

func (s *venueStoreStub) UpdateVenue(_ context.Context, venue Venue) (Venue, error) {
	if _, ok := s.venues[venue.ID]; !ok {
		return Venue{}, ErrNotFound
	}
	s.venues[venue.ID] = venue
	return venue, nil
}

func (s *venueStoreStub) DeleteVenue(_ context.Context, id string) error {
	if _, ok := s.venues[id]; !ok {
		return ErrNotFound
	}
	delete(s.venues, id)
	return nil
}

func (s *venueStoreStub) ListVenues(context.Context) ([]Venue, error) {
	venues := make([]Venue, 0, len(s.venues))
	for _, venue := range s.venues {
		venues = append(venues, venue)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].ID < venues[j].ID })
	return venues, nil
}

type eventStoreStub struct {
	events    map[string]SpecialEvent
	listErr   error
	createErr error
}

func newEventStoreStub() *eventStoreStub {
	return &eventStoreStub{events: make(map[string]SpecialEvent)}
}

func (s *eventStoreStub) seed(events ...SpecialEvent) {
	for _, event := range events {
		s.events[event.ID] = event
	}
}

func (s *eventStoreStub) CreateEvent(_ context.Context, event SpecialEvent) (SpecialEvent, error) {
	if s.createErr != nil {
		return SpecialEvent{}, s.createErr
	}
	s.events[event.ID] = event
	return event, nil
}

func (s *eventStoreStub) GetEvent(_ context.Context, id string) (SpecialEvent, error) {
	event, ok := s.events[id]
	if !ok {
		return SpecialEvent{}, ErrNotFound
	}
	return event, nil
}

func (s *eventStoreStub) UpdateEvent(_ context.Context, event SpecialEvent) (SpecialEvent, error) {
	if _, ok := s.events[event.ID]; !ok {
		return SpecialEvent{}, ErrNotFound
	}
	s.events[event.ID] = event
	return event, nil
}

func (s *eventStoreStub) DeleteEvent(_ context.Context, id string) error {
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *eventStoreStub) ListEvents(context.Context) ([]SpecialEvent, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	events := make([]SpecialEvent, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

type galleryStoreStub struct {
	photos    map[string]GalleryPhoto
	createErr error
}

func newGalleryStoreStub() *galleryStoreStub {
	return &galleryStoreStub{photos: make(map[string]GalleryPhoto)}
}

func (s *galleryStoreStub) CreateGalleryPhoto(_ context.Context, photo GalleryPhoto) (GalleryPhoto, error) {
	if s.createErr != nil {
		return GalleryPhoto{}, s.createErr
	}
	s.photos[photo.ID] = photo
	return photo, nil
}

func (s *galleryStoreStub) DeleteGalleryPhoto(_ context.Context, id string) error {
	if _, ok := s.photos[id]; !ok {
		return ErrNotFound
	}
	delete(s.photos, id)
	return nil
}

func (s *galleryStoreStub) ListGalleryPhotos(context.Context) ([]GalleryPhoto, error) {
	photos := make([]GalleryPhoto, 0, len(s.photos))
	for _, photo := range s.photos {
		photos = append(photos, photo)
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].ID < photos[j].ID })
	return photos, nil
}

type communityStoreStub struct {
	items     map[string]CommunityItem
	createErr error
}

func newCommunityStoreStub() *communityStoreStub {
	return &communityStoreStub{items: make(map[string]CommunityItem)}
}

func (s *communityStoreStub) CreateCommunityItem(_ context.Context, item CommunityItem) (CommunityItem, error) {
	if s.createErr != nil {
		return CommunityItem{}, s.createErr
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *communityStoreStub) GetCommunityItem(_ context.Context, id string) (CommunityItem, error) {
	item, ok := s.items[id]
	if !ok {
		return CommunityItem{}, ErrNotFound
	}
	return item, nil
}

func (s *communityStoreStub) UpdateCommunityItem(_ context.Context, item CommunityItem) (CommunityItem, error) {
	if _, ok := s.items[item.ID]; !ok {
		return CommunityItem{}, ErrNotFound
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *communityStoreStub) DeleteCommunityItem(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *communityStoreStub) ListCommunityItems(context.Context) ([]CommunityItem, error) {
	items := make([]CommunityItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
