package businessflow

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/knobo/simple-queue-management-sub000/app/services"
	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/utils"
)

// fakeStore is a shared in-memory backing store for the fake repositories.
// It mimics the persistence semantics the flows rely on without a database.
type fakeStore struct {
	queues    map[uint]*models.Queue
	tickets   map[uint]*models.Ticket
	stages    map[uint]*models.DisplayStage
	counters  map[uint]*models.Counter
	sessions  map[uint]*models.CounterSession
	tokens    map[uint]*models.AccessToken
	operators map[uint]*models.Operator
	audits    []*models.AuditLog
	sequences map[uint]int64
	nextID    uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		queues:    make(map[uint]*models.Queue),
		tickets:   make(map[uint]*models.Ticket),
		stages:    make(map[uint]*models.DisplayStage),
		counters:  make(map[uint]*models.Counter),
		sessions:  make(map[uint]*models.CounterSession),
		tokens:    make(map[uint]*models.AccessToken),
		operators: make(map[uint]*models.Operator),
		sequences: make(map[uint]int64),
	}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

// fakeQueueRepo implements repository.QueueRepository over the store

type fakeQueueRepo struct{ store *fakeStore }

func (r *fakeQueueRepo) ByID(ctx context.Context, id uint) (*models.Queue, error) {
	if q, ok := r.store.queues[id]; ok {
		return q, nil
	}
	return nil, nil
}

func (r *fakeQueueRepo) ByFilter(ctx context.Context, filter models.QueueFilter, orderBy string, limit, offset int) ([]*models.Queue, error) {
	var result []*models.Queue
	for _, q := range r.store.queues {
		if filter.OwnerID != nil && q.OwnerID != *filter.OwnerID {
			continue
		}
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeQueueRepo) Save(ctx context.Context, queue *models.Queue) error {
	if queue.ID == 0 {
		queue.ID = r.store.id()
	}
	r.store.queues[queue.ID] = queue
	return nil
}

func (r *fakeQueueRepo) SaveBatch(ctx context.Context, queues []*models.Queue) error {
	for _, q := range queues {
		if err := r.Save(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeQueueRepo) Count(ctx context.Context, filter models.QueueFilter) (int64, error) {
	queues, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(queues)), nil
}

func (r *fakeQueueRepo) Exists(ctx context.Context, filter models.QueueFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeQueueRepo) ByUUID(ctx context.Context, queueUUID uuid.UUID) (*models.Queue, error) {
	for _, q := range r.store.queues {
		if q.UUID == queueUUID {
			return q, nil
		}
	}
	return nil, nil
}

func (r *fakeQueueRepo) ByDisplayToken(ctx context.Context, token string) (*models.Queue, error) {
	for _, q := range r.store.queues {
		if q.DisplayToken == token {
			return q, nil
		}
	}
	return nil, nil
}

func (r *fakeQueueRepo) ByStaticSecret(ctx context.Context, secret string) (*models.Queue, error) {
	for _, q := range r.store.queues {
		if q.StaticSecret != nil && *q.StaticSecret == secret {
			return q, nil
		}
	}
	return nil, nil
}

func (r *fakeQueueRepo) ListRotating(ctx context.Context) ([]*models.Queue, error) {
	var result []*models.Queue
	for _, q := range r.store.queues {
		if q.AccessMode == models.AccessModeRotating && q.RotationInterval > 0 {
			result = append(result, q)
		}
	}
	return result, nil
}

func (r *fakeQueueRepo) UpdateOpenState(ctx context.Context, queueID uint, isOpen bool) error {
	if q, ok := r.store.queues[queueID]; ok {
		q.IsOpen = utils.ToPtr(isOpen)
	}
	return nil
}

func (r *fakeQueueRepo) UpdateStaticSecret(ctx context.Context, queueID uint, secret string) error {
	if q, ok := r.store.queues[queueID]; ok {
		q.StaticSecret = &secret
	}
	return nil
}

func (r *fakeQueueRepo) UpdateLastRotatedAt(ctx context.Context, queueID uint, at time.Time) error {
	if q, ok := r.store.queues[queueID]; ok {
		q.LastRotatedAt = &at
	}
	return nil
}

// fakeTicketRepo implements repository.TicketRepository over the store

type fakeTicketRepo struct{ store *fakeStore }

func (r *fakeTicketRepo) ByID(ctx context.Context, id uint) (*models.Ticket, error) {
	if t, ok := r.store.tickets[id]; ok {
		return t, nil
	}
	return nil, nil
}

func (r *fakeTicketRepo) ByFilter(ctx context.Context, filter models.TicketFilter, orderBy string, limit, offset int) ([]*models.Ticket, error) {
	var result []*models.Ticket
	for _, t := range r.store.tickets {
		if filter.QueueID != nil && t.QueueID != *filter.QueueID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *fakeTicketRepo) Save(ctx context.Context, ticket *models.Ticket) error {
	if ticket.ID == 0 {
		ticket.ID = r.store.id()
	}
	r.store.tickets[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) SaveBatch(ctx context.Context, tickets []*models.Ticket) error {
	for _, t := range tickets {
		if err := r.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeTicketRepo) Count(ctx context.Context, filter models.TicketFilter) (int64, error) {
	tickets, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(tickets)), nil
}

func (r *fakeTicketRepo) Exists(ctx context.Context, filter models.TicketFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeTicketRepo) ByUUID(ctx context.Context, ticketUUID uuid.UUID) (*models.Ticket, error) {
	for _, t := range r.store.tickets {
		if t.UUID == ticketUUID {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) ByQueueAndNumber(ctx context.Context, queueID uint, number int64) (*models.Ticket, error) {
	for _, t := range r.store.tickets {
		if t.QueueID == queueID && t.Number == number {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) ByIDForUpdate(ctx context.Context, ticketID uint) (*models.Ticket, error) {
	return r.ByID(ctx, ticketID)
}

func (r *fakeTicketRepo) NextWaitingForUpdate(ctx context.Context, queueID uint) (*models.Ticket, error) {
	var next *models.Ticket
	for _, t := range r.store.tickets {
		if t.QueueID != queueID || t.Status != models.TicketStatusWaiting {
			continue
		}
		if next == nil || t.Number < next.Number {
			next = t
		}
	}
	return next, nil
}

func (r *fakeTicketRepo) MarkCalled(ctx context.Context, ticketID uint, stageID, counterID, operatorID *uint, at time.Time) error {
	t := r.store.tickets[ticketID]
	t.Status = models.TicketStatusCalled
	t.StageID = stageID
	t.CounterID = counterID
	t.OperatorID = operatorID
	t.CalledAt = &at
	return nil
}

func (r *fakeTicketRepo) MarkCompleted(ctx context.Context, ticketID uint, stageID *uint, at time.Time) error {
	t := r.store.tickets[ticketID]
	t.Status = models.TicketStatusCompleted
	t.StageID = stageID
	t.CompletedAt = &at
	return nil
}

func (r *fakeTicketRepo) MarkCancelled(ctx context.Context, ticketID uint, stageID *uint) error {
	t := r.store.tickets[ticketID]
	t.Status = models.TicketStatusCancelled
	t.StageID = stageID
	return nil
}

func (r *fakeTicketRepo) CountWaitingBelow(ctx context.Context, queueID uint, number int64) (int64, error) {
	var count int64
	for _, t := range r.store.tickets {
		if t.QueueID == queueID && t.Status == models.TicketStatusWaiting && t.Number < number {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) HighestCalledNumber(ctx context.Context, queueID uint) (int64, error) {
	var highest int64
	for _, t := range r.store.tickets {
		if t.QueueID == queueID && t.CalledAt != nil && t.Number > highest {
			highest = t.Number
		}
	}
	return highest, nil
}

func (r *fakeTicketRepo) AverageServiceSeconds(ctx context.Context, queueID uint) (float64, error) {
	var total float64
	var count int
	for _, t := range r.store.tickets {
		if t.QueueID != queueID || t.Status != models.TicketStatusCompleted || t.CalledAt == nil || t.CompletedAt == nil {
			continue
		}
		total += t.CompletedAt.Sub(*t.CalledAt).Seconds()
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}

// fakeSequenceRepo implements repository.SequenceRepository over the store

type fakeSequenceRepo struct{ store *fakeStore }

func (r *fakeSequenceRepo) NextNumber(ctx context.Context, queueID uint) (int64, error) {
	r.store.sequences[queueID]++
	return r.store.sequences[queueID], nil
}

// fakeStageRepo implements repository.DisplayStageRepository over the store

type fakeStageRepo struct{ store *fakeStore }

func (r *fakeStageRepo) ByID(ctx context.Context, id uint) (*models.DisplayStage, error) {
	if s, ok := r.store.stages[id]; ok {
		return s, nil
	}
	return nil, nil
}

func (r *fakeStageRepo) ByFilter(ctx context.Context, filter models.DisplayStageFilter, orderBy string, limit, offset int) ([]*models.DisplayStage, error) {
	var result []*models.DisplayStage
	for _, s := range r.store.stages {
		if filter.QueueID != nil && s.QueueID != *filter.QueueID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (r *fakeStageRepo) Save(ctx context.Context, stage *models.DisplayStage) error {
	if stage.ID == 0 {
		stage.ID = r.store.id()
	}
	r.store.stages[stage.ID] = stage
	return nil
}

func (r *fakeStageRepo) SaveBatch(ctx context.Context, stages []*models.DisplayStage) error {
	for _, s := range stages {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeStageRepo) Count(ctx context.Context, filter models.DisplayStageFilter) (int64, error) {
	stages, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(stages)), nil
}

func (r *fakeStageRepo) Exists(ctx context.Context, filter models.DisplayStageFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeStageRepo) FirstByQueueAndStatus(ctx context.Context, queueID uint, status string) (*models.DisplayStage, error) {
	stages, _ := r.ByFilter(ctx, models.DisplayStageFilter{QueueID: &queueID, Status: &status}, "", 0, 0)
	if len(stages) == 0 {
		return nil, nil
	}
	return stages[0], nil
}

func (r *fakeStageRepo) CountByQueueAndStatus(ctx context.Context, queueID uint, status string) (int64, error) {
	return r.Count(ctx, models.DisplayStageFilter{QueueID: &queueID, Status: &status})
}

func (r *fakeStageRepo) Delete(ctx context.Context, stageID uint) error {
	delete(r.store.stages, stageID)
	return nil
}

// fakeCounterRepo implements repository.CounterRepository over the store

type fakeCounterRepo struct{ store *fakeStore }

func (r *fakeCounterRepo) ByID(ctx context.Context, id uint) (*models.Counter, error) {
	if c, ok := r.store.counters[id]; ok {
		return c, nil
	}
	return nil, nil
}

func (r *fakeCounterRepo) ByFilter(ctx context.Context, filter models.CounterFilter, orderBy string, limit, offset int) ([]*models.Counter, error) {
	var result []*models.Counter
	for _, c := range r.store.counters {
		if filter.QueueID != nil && c.QueueID != *filter.QueueID {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *fakeCounterRepo) Save(ctx context.Context, counter *models.Counter) error {
	if counter.ID == 0 {
		counter.ID = r.store.id()
	}
	r.store.counters[counter.ID] = counter
	return nil
}

func (r *fakeCounterRepo) SaveBatch(ctx context.Context, counters []*models.Counter) error {
	for _, c := range counters {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeCounterRepo) Count(ctx context.Context, filter models.CounterFilter) (int64, error) {
	counters, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(counters)), nil
}

func (r *fakeCounterRepo) Exists(ctx context.Context, filter models.CounterFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeCounterRepo) ByQueue(ctx context.Context, queueID uint) ([]*models.Counter, error) {
	return r.ByFilter(ctx, models.CounterFilter{QueueID: &queueID}, "", 0, 0)
}

func (r *fakeCounterRepo) ByIDForUpdate(ctx context.Context, counterID uint) (*models.Counter, error) {
	return r.ByID(ctx, counterID)
}

func (r *fakeCounterRepo) ByCurrentOperator(ctx context.Context, operatorID uint) ([]*models.Counter, error) {
	var result []*models.Counter
	for _, c := range r.store.counters {
		if c.CurrentOperatorID != nil && *c.CurrentOperatorID == operatorID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *fakeCounterRepo) CountByQueue(ctx context.Context, queueID uint) (int64, error) {
	return r.Count(ctx, models.CounterFilter{QueueID: &queueID})
}

func (r *fakeCounterRepo) SetCurrentOperator(ctx context.Context, counterID uint, operatorID *uint) error {
	if c, ok := r.store.counters[counterID]; ok {
		c.CurrentOperatorID = operatorID
	}
	return nil
}

func (r *fakeCounterRepo) SetCurrentTicket(ctx context.Context, counterID uint, ticketID *uint) error {
	if c, ok := r.store.counters[counterID]; ok {
		c.CurrentTicketID = ticketID
	}
	return nil
}

func (r *fakeCounterRepo) Release(ctx context.Context, counterID uint) error {
	if c, ok := r.store.counters[counterID]; ok {
		c.CurrentOperatorID = nil
		c.CurrentTicketID = nil
	}
	return nil
}

func (r *fakeCounterRepo) Delete(ctx context.Context, counterID uint) error {
	delete(r.store.counters, counterID)
	return nil
}

// fakeSessionRepo implements repository.CounterSessionRepository over the store

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) ByID(ctx context.Context, id uint) (*models.CounterSession, error) {
	if s, ok := r.store.sessions[id]; ok {
		return s, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) ByFilter(ctx context.Context, filter models.CounterSessionFilter, orderBy string, limit, offset int) ([]*models.CounterSession, error) {
	var result []*models.CounterSession
	for _, s := range r.store.sessions {
		if filter.OperatorID != nil && s.OperatorID != *filter.OperatorID {
			continue
		}
		if filter.CounterID != nil && s.CounterID != *filter.CounterID {
			continue
		}
		if filter.Active != nil && s.IsActive() != *filter.Active {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeSessionRepo) Save(ctx context.Context, session *models.CounterSession) error {
	if session.ID == 0 {
		session.ID = r.store.id()
	}
	r.store.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) SaveBatch(ctx context.Context, sessions []*models.CounterSession) error {
	for _, s := range sessions {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, filter models.CounterSessionFilter) (int64, error) {
	sessions, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(sessions)), nil
}

func (r *fakeSessionRepo) Exists(ctx context.Context, filter models.CounterSessionFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeSessionRepo) ActiveByOperator(ctx context.Context, operatorID uint) (*models.CounterSession, error) {
	for _, s := range r.store.sessions {
		if s.OperatorID == operatorID && s.IsActive() {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) ActiveByCounterForUpdate(ctx context.Context, counterID uint) (*models.CounterSession, error) {
	for _, s := range r.store.sessions {
		if s.CounterID == counterID && s.IsActive() {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) End(ctx context.Context, sessionID uint, at time.Time) error {
	if s, ok := r.store.sessions[sessionID]; ok {
		s.EndedAt = &at
	}
	return nil
}

// fakeTokenRepo implements repository.AccessTokenRepository over the store

type fakeTokenRepo struct{ store *fakeStore }

func (r *fakeTokenRepo) ByID(ctx context.Context, id uint) (*models.AccessToken, error) {
	if t, ok := r.store.tokens[id]; ok {
		return t, nil
	}
	return nil, nil
}

func (r *fakeTokenRepo) ByFilter(ctx context.Context, filter models.AccessTokenFilter, orderBy string, limit, offset int) ([]*models.AccessToken, error) {
	var result []*models.AccessToken
	for _, t := range r.store.tokens {
		if filter.QueueID != nil && t.QueueID != *filter.QueueID {
			continue
		}
		if filter.IsActive != nil && utils.IsTrue(t.IsActive) != *filter.IsActive {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeTokenRepo) Save(ctx context.Context, token *models.AccessToken) error {
	if token.ID == 0 {
		token.ID = r.store.id()
	}
	r.store.tokens[token.ID] = token
	return nil
}

func (r *fakeTokenRepo) SaveBatch(ctx context.Context, tokens []*models.AccessToken) error {
	for _, t := range tokens {
		if err := r.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeTokenRepo) Count(ctx context.Context, filter models.AccessTokenFilter) (int64, error) {
	tokens, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(tokens)), nil
}

func (r *fakeTokenRepo) Exists(ctx context.Context, filter models.AccessTokenFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeTokenRepo) ByCode(ctx context.Context, code string) (*models.AccessToken, error) {
	for _, t := range r.store.tokens {
		if t.Code == code {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) ByCodeForUpdate(ctx context.Context, code string) (*models.AccessToken, error) {
	return r.ByCode(ctx, code)
}

func (r *fakeTokenRepo) ActiveByQueue(ctx context.Context, queueID uint) ([]*models.AccessToken, error) {
	return r.ByFilter(ctx, models.AccessTokenFilter{QueueID: &queueID, IsActive: utils.ToPtr(true)}, "", 0, 0)
}

func (r *fakeTokenRepo) DeactivateAllForQueue(ctx context.Context, queueID uint) error {
	for _, t := range r.store.tokens {
		if t.QueueID == queueID {
			t.IsActive = utils.ToPtr(false)
		}
	}
	return nil
}

func (r *fakeTokenRepo) IncrementUseCount(ctx context.Context, tokenID uint) error {
	if t, ok := r.store.tokens[tokenID]; ok {
		t.UseCount++
	}
	return nil
}

func (r *fakeTokenRepo) Deactivate(ctx context.Context, tokenID uint) error {
	if t, ok := r.store.tokens[tokenID]; ok {
		t.IsActive = utils.ToPtr(false)
	}
	return nil
}

// fakeOperatorRepo implements repository.OperatorRepository over the store

type fakeOperatorRepo struct{ store *fakeStore }

func (r *fakeOperatorRepo) ByID(ctx context.Context, id uint) (*models.Operator, error) {
	if o, ok := r.store.operators[id]; ok {
		return o, nil
	}
	return nil, nil
}

func (r *fakeOperatorRepo) ByFilter(ctx context.Context, filter models.OperatorFilter, orderBy string, limit, offset int) ([]*models.Operator, error) {
	var result []*models.Operator
	for _, o := range r.store.operators {
		result = append(result, o)
	}
	return result, nil
}

func (r *fakeOperatorRepo) Save(ctx context.Context, operator *models.Operator) error {
	if operator.ID == 0 {
		operator.ID = r.store.id()
	}
	r.store.operators[operator.ID] = operator
	return nil
}

func (r *fakeOperatorRepo) SaveBatch(ctx context.Context, operators []*models.Operator) error {
	for _, o := range operators {
		if err := r.Save(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeOperatorRepo) Count(ctx context.Context, filter models.OperatorFilter) (int64, error) {
	return int64(len(r.store.operators)), nil
}

func (r *fakeOperatorRepo) Exists(ctx context.Context, filter models.OperatorFilter) (bool, error) {
	return len(r.store.operators) > 0, nil
}

func (r *fakeOperatorRepo) ByUUID(ctx context.Context, operatorUUID uuid.UUID) (*models.Operator, error) {
	for _, o := range r.store.operators {
		if o.UUID == operatorUUID {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOperatorRepo) ByEmail(ctx context.Context, email string) (*models.Operator, error) {
	for _, o := range r.store.operators {
		if o.Email == email {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOperatorRepo) UpdatePassword(ctx context.Context, operatorID uint, passwordHash string) error {
	if o, ok := r.store.operators[operatorID]; ok {
		o.PasswordHash = passwordHash
	}
	return nil
}

// fakeAuditRepo implements repository.AuditLogRepository over the store

type fakeAuditRepo struct{ store *fakeStore }

func (r *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	var result []*models.AuditLog
	for _, a := range r.store.audits {
		if filter.Action != nil && a.Action != *filter.Action {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (r *fakeAuditRepo) Save(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == 0 {
		entry.ID = r.store.id()
	}
	r.store.audits = append(r.store.audits, entry)
	return nil
}

func (r *fakeAuditRepo) SaveBatch(ctx context.Context, entries []*models.AuditLog) error {
	for _, a := range entries {
		if err := r.Save(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	entries, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(entries)), nil
}

func (r *fakeAuditRepo) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

// testEnv wires every flow against a shared in-memory store. A nil *gorm.DB
// makes WithTransaction run the callback directly.
// fakeNotificationService records published events for assertions
type fakeNotificationService struct {
	events []services.QueueEvent
}

func (s *fakeNotificationService) NotifyQueue(queueUUID uuid.UUID, event services.QueueEvent) {
	s.events = append(s.events, event)
}

func (s *fakeNotificationService) lastEvent() *services.QueueEvent {
	if len(s.events) == 0 {
		return nil
	}
	return &s.events[len(s.events)-1]
}

type testEnv struct {
	store         *fakeStore
	notifications *fakeNotificationService

	queueRepo    *fakeQueueRepo
	ticketRepo   *fakeTicketRepo
	sequenceRepo *fakeSequenceRepo
	stageRepo    *fakeStageRepo
	counterRepo  *fakeCounterRepo
	sessionRepo  *fakeSessionRepo
	tokenRepo    *fakeTokenRepo
	operatorRepo *fakeOperatorRepo
	auditRepo    *fakeAuditRepo

	queueFlow   QueueFlow
	ticketFlow  TicketFlow
	sessionFlow SessionFlow
	tokenFlow   AccessTokenFlow
	statusFlow  QueueStatusFlow
}

func newTestEnv() *testEnv {
	return newTestEnvWithQuota(0, 0)
}

func newTestEnvWithQuota(maxQueues, maxCounters int64) *testEnv {
	store := newFakeStore()
	env := &testEnv{
		store:        store,
		queueRepo:    &fakeQueueRepo{store: store},
		ticketRepo:   &fakeTicketRepo{store: store},
		sequenceRepo: &fakeSequenceRepo{store: store},
		stageRepo:    &fakeStageRepo{store: store},
		counterRepo:  &fakeCounterRepo{store: store},
		sessionRepo:  &fakeSessionRepo{store: store},
		tokenRepo:    &fakeTokenRepo{store: store},
		operatorRepo: &fakeOperatorRepo{store: store},
		auditRepo:    &fakeAuditRepo{store: store},
	}

	notificationSvc := &fakeNotificationService{}
	env.notifications = notificationSvc
	quotaSvc := services.NewPlanQuotaService(maxQueues, maxCounters)

	env.queueFlow = NewQueueFlow(env.queueRepo, env.stageRepo, env.counterRepo, env.auditRepo, quotaSvc, notificationSvc, nil)
	env.ticketFlow = NewTicketFlow(env.queueRepo, env.ticketRepo, env.sequenceRepo, env.stageRepo, env.counterRepo, env.sessionRepo, env.auditRepo, notificationSvc, nil)
	env.sessionFlow = NewSessionFlow(env.queueRepo, env.counterRepo, env.sessionRepo, env.auditRepo, nil)
	env.tokenFlow = NewAccessTokenFlow(env.queueRepo, env.tokenRepo, env.ticketRepo, env.sequenceRepo, env.stageRepo, env.auditRepo, notificationSvc, nil)
	env.statusFlow = NewQueueStatusFlow(env.queueRepo, env.ticketRepo, env.stageRepo, nil)

	return env
}

// seedQueue creates an open queue with default stages and one counter
func (env *testEnv) seedQueue(ownerID uint, accessMode string) *models.Queue {
	queue := &models.Queue{
		UUID:         uuid.New(),
		OwnerID:      ownerID,
		Name:         "Test Queue",
		IsOpen:       utils.ToPtr(true),
		AccessMode:   accessMode,
		DisplayToken: "DPTK" + uuid.New().String()[:8],
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	_ = env.queueRepo.Save(context.Background(), queue)
	_ = env.stageRepo.SaveBatch(context.Background(), models.DefaultStages(queue.ID))
	_ = env.counterRepo.Save(context.Background(), &models.Counter{
		QueueID:   queue.ID,
		Number:    1,
		CreatedAt: utils.UTCNow(),
		UpdatedAt: utils.UTCNow(),
	})
	return queue
}

// seedTicket inserts a ticket with the given status and number
func (env *testEnv) seedTicket(queueID uint, number int64, status string) *models.Ticket {
	now := utils.UTCNow()
	ticket := &models.Ticket{
		UUID:      uuid.New(),
		QueueID:   queueID,
		Number:    number,
		Status:    status,
		CreatedAt: now,
	}
	switch status {
	case models.TicketStatusCalled:
		ticket.CalledAt = &now
	case models.TicketStatusCompleted:
		ticket.CalledAt = &now
		ticket.CompletedAt = &now
	}
	_ = env.ticketRepo.Save(context.Background(), ticket)
	if env.store.sequences[queueID] < number {
		env.store.sequences[queueID] = number
	}
	return ticket
}
