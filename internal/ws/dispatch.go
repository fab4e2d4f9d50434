package ws

import (
	"errors"
	"fmt"
	"strings"

	"wordguess/internal/game"
)

var errUnhandledMessage = errors.New("unhandled message type")

func (r *Room) handleAction(c *Client, playerID string, msg ClientMessage) {
	s := r.session
	if _, ok := r.attached[c]; !ok {
		c.sendError(ErrNotInGame)
		return
	}
	own, err := s.SeatOf(playerID)
	if err != nil {
		c.sendError(err)
		return
	}
	acting, err := resolveActingSeat(s, own, msg)
	if err != nil {
		DomainErrorsTotal.WithLabelValues(string(msg.Type())).Inc()
		c.sendError(err)
		return
	}

	turnBefore := s.Turn.CurrentTurn
	if err := r.dispatch(c, acting, msg); err != nil {
		DomainErrorsTotal.WithLabelValues(string(msg.Type())).Inc()
		r.log.Debug("action rejected", "type", msg.Type(), "seat", acting, "error", err)
		c.sendError(err)
		return
	}
	r.touch()

	// a shared screen has to switch perspective whenever the turn moves
	if s.Modes.SharedComputerMode && s.Phase == game.PhasePlaying && s.Turn.CurrentTurn != turnBefore {
		if _, isEndTurn := msg.(*EndTurn); !isEndTurn {
			r.broadcast(TurnEndedMessage{header: header{TypeTurnEnded}, NextPlayerIndex: s.Turn.CurrentTurn})
		}
		r.sendStateAll()
	}
}

// resolveActingSeat picks the seat an action applies to. Outside
// shared-computer mode that is always the socket's own seat.
func resolveActingSeat(s *game.Session, seat int, msg ClientMessage) (int, error) {
	if !s.Modes.SharedComputerMode {
		return seat, nil
	}
	switch m := msg.(type) {
	case *AnswerQuestion:
		return 1 - s.Turn.CurrentTurn, nil
	case *SelectSecretWord:
		if m.ForPlayerIndex != nil {
			if s.Player(*m.ForPlayerIndex) == nil {
				return -1, game.ErrUnknownPlayer
			}
			return *m.ForPlayerIndex, nil
		}
		if next := firstUnselected(s); next >= 0 {
			return next, nil
		}
		return seat, nil
	default:
		return s.Turn.CurrentTurn, nil
	}
}

func (r *Room) dispatch(c *Client, seat int, msg ClientMessage) error {
	s := r.session

	switch m := msg.(type) {
	case *FlipCard:
		flipped, err := game.FlipCard(s, seat, *m.CardIndex)
		if err != nil {
			return err
		}
		// flips are private notes: the others only learn that a flip happened
		idx := *m.CardIndex
		c.send(CardFlippedMessage{header: header{TypeCardFlipped}, PlayerIndex: seat, CardIndex: &idx, Flipped: &flipped})
		r.broadcastExcept(c, CardFlippedMessage{header: header{TypeCardFlipped}, PlayerIndex: seat})

	case *AskQuestion:
		if err := game.AskQuestion(s, seat, m.Question); err != nil {
			return err
		}
		r.broadcast(QuestionAskedMessage{
			header:      header{TypeQuestionAsked},
			PlayerIndex: seat,
			Question:    *s.Turn.PendingQuestion,
		})

	case *AnswerQuestion:
		rec, err := game.AnswerQuestion(s, seat, *m.Answer)
		if err != nil {
			return err
		}
		r.broadcast(QuestionAnsweredMessage{
			header:      header{TypeQuestionAnswered},
			PlayerIndex: seat,
			Question:    rec.Question,
			Answer:      *rec.Answer,
			CurrentTurn: s.Turn.CurrentTurn,
		})

	case *MakeGuess:
		correct, err := game.MakeGuess(s, seat, m.Word)
		if err != nil {
			return err
		}
		r.broadcast(GuessMadeMessage{
			header:      header{TypeGuessMade},
			PlayerIndex: seat,
			Word:        strings.TrimSpace(m.Word),
			Correct:     correct,
			CurrentTurn: s.Turn.CurrentTurn,
		})
		if correct {
			r.finishGame(seat)
		}

	case *SelectSecretWord:
		if err := game.SelectSecretWord(s, seat, *m.CardIndex); err != nil {
			return err
		}
		r.broadcast(WordSelectedMessage{header: header{TypeWordSelected}, PlayerIndex: seat, Phase: s.Phase})
		if s.Phase == game.PhasePlaying || s.Modes.SharedComputerMode {
			r.sendStateAll()
		}

	case *EndTurn:
		if err := game.EndTurn(s, seat); err != nil {
			return err
		}
		r.broadcast(TurnEndedMessage{header: header{TypeTurnEnded}, NextPlayerIndex: s.Turn.CurrentTurn})

	case *JoinGame, *LeaveGame:
		// routed by the client before reaching a room
		return ErrInvalidMessage

	default:
		return fmt.Errorf("%w: %s", errUnhandledMessage, msg.Type())
	}
	return nil
}

func (r *Room) finishGame(winner int) {
	s := r.session
	name := ""
	if p := s.Player(winner); p != nil {
		name = p.Name
	}
	r.log.Info("game over", "winner", winner, "questions", len(s.Questions))
	GamesFinishedTotal.Inc()
	r.broadcast(GameOverMessage{
		header:      header{TypeGameOver},
		WinnerIndex: winner,
		WinnerName:  name,
		SecretWords: s.SecretWords(),
	})
	r.archiveResult()
}
