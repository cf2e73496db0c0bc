package coordinator

import (
	"sync"

	"github.com/iudanet/entsync/internal/models"
)

// subscriptionBuffer — ёмкость канала доставки. Подписчик, не успевающий
// вычитывать, теряет пакеты изменений, а не блокирует координатор.
const subscriptionBuffer = 16

// Subscription — отменяемая подписка на поток изменений координатора.
// Подписка с запросом доставляет только изменения, меняющие результат
// этого запроса.
type Subscription struct {
	c     *Coordinator
	id    int
	query *models.Query

	ch   chan []models.Change
	once sync.Once

	// members — ключи сущностей, входивших в результат запроса при
	// последней оценке. Только для подписок с запросом.
	mu      sync.Mutex
	closed  bool
	members map[string]struct{}
}

// Subscribe создает подписку на изменения. q == nil подписывает на все
// изменения типа; иначе доставляются только изменения, затрагивающие
// результат запроса. Отмена одной подписки не влияет на остальные.
func (c *Coordinator) Subscribe(q *models.Query) *Subscription {
	s := &Subscription{
		c:     c,
		query: q,
		ch:    make(chan []models.Change, subscriptionBuffer),
	}
	if q != nil {
		s.members = make(map[string]struct{})
	}

	c.subMu.Lock()
	s.id = c.nextSub
	c.nextSub++
	c.subs[s.id] = s
	c.subMu.Unlock()
	return s
}

// Changes возвращает канал пакетов изменений. Канал закрывается при
// отмене подписки или закрытии координатора.
func (s *Subscription) Changes() <-chan []models.Change {
	return s.ch
}

// Cancel останавливает доставку. Повторный вызов безопасен.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.c.subMu.Lock()
		delete(s.c.subs, s.id)
		s.c.subMu.Unlock()

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.ch)
	})
}

// notify помечает пакет изменений логическими часами и раздаёт его всем
// живым подпискам.
func (c *Coordinator) notify(changes []models.Change) {
	if len(changes) == 0 {
		return
	}

	stamp := c.clock.Tick()
	for i := range changes {
		changes[i].Clock = stamp
	}

	c.subMu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subMu.Unlock()

	for _, s := range subs {
		s.deliver(c, changes)
	}
}

// deliver отбирает изменения, которые подписка должна увидеть, и
// отправляет их в канал. Подписка с запросом переигрывает предикат:
// изменение доставляется, когда сущность входит в результат, покидает
// его или обновляется, оставаясь в нём.
func (s *Subscription) deliver(c *Coordinator, changes []models.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	batch := s.relevant(c.desc, changes)
	if len(batch) == 0 {
		return
	}
	select {
	case s.ch <- batch:
	default:
		c.logger.Warn("slow subscriber, dropping change batch", "batch_size", len(batch))
	}
}

// relevant вызывается под s.mu.
func (s *Subscription) relevant(desc *models.Descriptor, changes []models.Change) []models.Change {
	if s.query == nil {
		return changes
	}

	var batch []models.Change
	for _, ch := range changes {
		key := ch.Entity.Ident().Key()
		_, wasMember := s.members[key]

		isMember := ch.Kind != models.ChangeRemoved && models.Matches(desc, ch.Entity, s.query)

		switch {
		case isMember && !wasMember:
			s.members[key] = struct{}{}
			batch = append(batch, models.Change{Entity: ch.Entity, Kind: models.ChangeInserted, Clock: ch.Clock})
		case isMember && wasMember:
			batch = append(batch, models.Change{Entity: ch.Entity, Kind: models.ChangeUpdated, Clock: ch.Clock})
		case !isMember && wasMember:
			delete(s.members, key)
			batch = append(batch, models.Change{Entity: ch.Entity, Kind: models.ChangeRemoved, Clock: ch.Clock})
		}
	}
	return batch
}
