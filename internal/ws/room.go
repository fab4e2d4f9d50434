package ws

import (
	"context"
	"log/slog"
	"time"

	"wordguess/internal/domain"
	"wordguess/internal/game"
	"wordguess/internal/logger"
)

const (
	roomEventBuffer = 64
	archiveTimeout  = 5 * time.Second
	expiredNotice   = "This game has expired."
	syntheticSuffix = "'s Opponent"
)

type roomEvent interface{}

type joinEvent struct {
	client *Client
	msg    *JoinGame
	reply  chan joinReply
}

type joinReply struct {
	playerID string
	seat     int
	err      error
}

type actionEvent struct {
	client   *Client
	playerID string
	msg      ClientMessage
}

type disconnectEvent struct {
	client *Client
}

// expireEvent carries the timer generation it was armed with; a stale
// generation is ignored.
type expireEvent struct {
	gen uint64
}

type summaryEvent struct {
	reply chan game.Summary
}

type shutdownEvent struct{}

// Room serialises everything that happens to one session. Only the run
// goroutine touches session, attached and the timer.
type Room struct {
	Code string

	hub     *Hub
	session *game.Session

	// attached maps each socket to the seat it joined as. A shared-computer
	// socket also drives the synthetic seat.
	attached map[*Client]int

	events chan roomEvent
	done   chan struct{}

	timer    *time.Timer
	gen      uint64
	archived bool

	createdExpiry time.Time

	log *slog.Logger
}

func newRoom(h *Hub, s *game.Session) *Room {
	r := &Room{
		Code:     s.Code,
		hub:      h,
		session:  s,
		attached: make(map[*Client]int),
		events:   make(chan roomEvent, roomEventBuffer),
		done:     make(chan struct{}),
		log:      logger.With("room", s.Code),
	}
	r.schedule(h.cfg.IdleTimeout)
	r.createdExpiry = s.ExpiresAt
	return r
}

func (r *Room) run() {
	defer close(r.done)

	for ev := range r.events {
		switch e := ev.(type) {
		case joinEvent:
			e.reply <- r.handleJoin(e.client, e.msg)
		case actionEvent:
			r.handleAction(e.client, e.playerID, e.msg)
		case disconnectEvent:
			r.handleDisconnect(e.client)
		case summaryEvent:
			e.reply <- game.Summarize(r.session)
		case expireEvent:
			if e.gen != r.gen {
				continue
			}
			r.log.Info("room expired", "phase", r.session.Phase, "connected", r.session.ConnectedCount())
			RoomsExpiredTotal.Inc()
			r.broadcast(GameExpiredMessage{header: header{TypeGameExpired}, Message: expiredNotice})
			r.teardown()
			return
		case shutdownEvent:
			r.teardown()
			return
		}
	}
}

// post enqueues ev unless the room has stopped.
func (r *Room) post(ev roomEvent) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) join(c *Client, m *JoinGame) (string, int, error) {
	reply := make(chan joinReply, 1)
	if !r.post(joinEvent{client: c, msg: m, reply: reply}) {
		return "", -1, ErrGameNotFound
	}
	select {
	case res := <-reply:
		return res.playerID, res.seat, res.err
	case <-r.done:
		return "", -1, ErrGameNotFound
	}
}

func (r *Room) action(c *Client, playerID string, msg ClientMessage) {
	if !r.post(actionEvent{client: c, playerID: playerID, msg: msg}) {
		c.sendError(ErrGameNotFound)
	}
}

func (r *Room) disconnect(c *Client) {
	r.post(disconnectEvent{client: c})
}

func (r *Room) summary(ctx context.Context) (game.Summary, error) {
	reply := make(chan game.Summary, 1)
	if !r.post(summaryEvent{reply: reply}) {
		return game.Summary{}, ErrGameNotFound
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		return game.Summary{}, ErrGameNotFound
	case <-ctx.Done():
		return game.Summary{}, ctx.Err()
	}
}

func (r *Room) handleJoin(c *Client, m *JoinGame) joinReply {
	s := r.session
	p, outcome, err := game.AddPlayer(s, m.PlayerName, m.PlayerID, r.hub.rnd)
	if err != nil {
		r.log.Debug("join rejected", "name", m.PlayerName, "error", err)
		return joinReply{seat: -1, err: err}
	}
	_, seat := s.PlayerByID(p.ID)

	// a shared-computer socket always holds the real seat, even when it
	// rejoins with the synthetic seat's id from a switched snapshot
	if outcome == game.Reconnected && p.Synthetic {
		seat = 1 - seat
		p = s.Player(seat)
		game.SetConnected(s, seat, true)
	}

	if outcome != game.Reconnected && c.Identity != nil {
		p.StudentID = c.Identity.StudentID
		p.ClassID = c.Identity.ClassID
	}

	// a reconnect takes the seat over from any stale socket still attached
	for other, st := range r.attached {
		if st == seat && other != c {
			delete(r.attached, other)
			other.finish()
		}
	}
	r.attached[c] = seat

	shared := s.Modes.SharedComputerMode
	switch outcome {
	case game.Reconnected:
		if shared {
			r.setSyntheticConnected(true)
		}
		r.touch()
		r.log.Info("player reconnected", "seat", seat, "player", p.ID)
		r.sendState(c)
		r.broadcastExcept(c, playerEvent(TypePlayerReconnected, seat, p.Name))

	case game.JoinedNew:
		if shared {
			r.seatSynthetic(p.Name)
		}
		r.touch()
		r.log.Info("player joined", "seat", seat, "player", p.ID, "phase", s.Phase)
		r.sendState(c)

	case game.JoinedAndFilled:
		r.touch()
		r.log.Info("player joined", "seat", seat, "player", p.ID, "phase", s.Phase)
		r.broadcastExcept(c, playerEvent(TypePlayerJoined, seat, p.Name))
		r.sendStateAll()
	}
	return joinReply{playerID: p.ID, seat: seat}
}

// seatSynthetic admits the second seat of a shared-computer game on behalf
// of the socket that just joined.
func (r *Room) seatSynthetic(name string) {
	sp, _, err := game.AddPlayer(r.session, syntheticName(name), "", r.hub.rnd)
	if err != nil {
		r.log.Error("could not seat synthetic opponent", "error", err)
		return
	}
	sp.Synthetic = true
}

func syntheticName(name string) string {
	base := []rune(name)
	if limit := game.MaxNameLength - len([]rune(syntheticSuffix)); len(base) > limit {
		base = base[:limit]
	}
	out := string(base) + syntheticSuffix
	if out == name {
		return "Opponent"
	}
	return out
}

func (r *Room) setSyntheticConnected(connected bool) {
	for i, p := range r.session.Players {
		if p.Synthetic {
			game.SetConnected(r.session, i, connected)
		}
	}
}

func (r *Room) handleDisconnect(c *Client) {
	seat, ok := r.attached[c]
	if !ok {
		return
	}
	delete(r.attached, c)

	s := r.session
	game.SetConnected(s, seat, false)
	if s.Modes.SharedComputerMode {
		r.setSyntheticConnected(false)
	}
	name := ""
	if p := s.Player(seat); p != nil {
		name = p.Name
	}
	r.log.Info("player left", "seat", seat, "connected", s.ConnectedCount())
	r.broadcast(playerEvent(TypePlayerLeft, seat, name))

	if s.ConnectedCount() == 0 {
		r.schedule(r.hub.cfg.GracePeriod)
	}
}

// touch re-arms the expiration timer after qualifying traffic. Finished and
// abandoned games only get the grace window.
func (r *Room) touch() {
	s := r.session
	d := r.hub.cfg.IdleTimeout
	if s.IsFinished() || (len(s.Players) > 0 && s.ConnectedCount() == 0) {
		d = r.hub.cfg.GracePeriod
	}
	r.schedule(d)
}

func (r *Room) schedule(d time.Duration) {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.gen++
	gen := r.gen
	r.session.ExpiresAt = time.Now().Add(d)
	r.timer = time.AfterFunc(d, func() {
		r.post(expireEvent{gen: gen})
	})
}

func (r *Room) teardown() {
	if r.timer != nil {
		r.timer.Stop()
	}
	for c := range r.attached {
		c.finish()
	}
	r.attached = map[*Client]int{}
	r.hub.removeRoom(r)
}

// archiveResult stores a finished game once. Failures are logged only.
func (r *Room) archiveResult() {
	if r.archived || r.hub.archive == nil {
		return
	}
	r.archived = true

	result := buildResult(r.session)
	archive := r.hub.archive
	log := r.log
	r.hub.archiving.Add(1)
	go func() {
		defer r.hub.archiving.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := archive.SaveResult(ctx, result); err != nil {
			log.Error("archive result failed", "error", err)
			return
		}
		log.Debug("result archived", "winner", result.WinnerIndex)
	}()
}

func buildResult(s *game.Session) *domain.GameResult {
	seats := make([]domain.SeatResult, len(s.Players))
	for i, p := range s.Players {
		seats[i] = domain.SeatResult{
			Index:     i,
			Name:      p.Name,
			StudentID: p.StudentID,
			ClassID:   p.ClassID,
			Synthetic: p.Synthetic,
		}
	}
	winner := -1
	if s.Turn.Winner != nil {
		winner = *s.Turn.Winner
	}
	mode := domain.GameModeOnline
	switch {
	case s.Modes.SharedComputerMode:
		mode = domain.GameModeShared
	case s.Modes.IsLocalMode:
		mode = domain.GameModeLocal
	}
	return &domain.GameResult{
		GameCode:    s.Code,
		ConfigID:    s.ConfigID,
		Seats:       seats,
		WinnerIndex: winner,
		SecretWords: s.SecretWords(),
		Mode:        mode,
		Questions:   len(s.Questions),
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
	}
}

func (r *Room) broadcast(msg ServerMessage) {
	for c := range r.attached {
		c.send(msg)
	}
}

func (r *Room) broadcastExcept(skip *Client, msg ServerMessage) {
	for c := range r.attached {
		if c != skip {
			c.send(msg)
		}
	}
}

func (r *Room) sendState(c *Client) {
	c.send(gameStateMessage(game.BuildView(r.session, r.viewSeat(c))))
}

func (r *Room) sendStateAll() {
	for c := range r.attached {
		r.sendState(c)
	}
}

// viewSeat picks the perspective a socket sees. A shared-computer socket
// follows whichever seat is due to act.
func (r *Room) viewSeat(c *Client) int {
	seat := r.attached[c]
	s := r.session
	if !s.Modes.SharedComputerMode {
		return seat
	}
	switch s.Phase {
	case game.PhaseSelecting:
		if next := firstUnselected(s); next >= 0 {
			return next
		}
	case game.PhasePlaying, game.PhaseFinished:
		return s.Turn.CurrentTurn
	}
	return seat
}

func firstUnselected(s *game.Session) int {
	for i, p := range s.Players {
		if !p.HasSelectedWord {
			return i
		}
	}
	return -1
}
