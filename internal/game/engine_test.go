package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
)

func testRand() Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func wordBank(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	return words
}

func newTestSession(t *testing.T, modes Modes) *Session {
	t.Helper()
	s, err := NewSession("ABC123", "cfg-1", 4, wordBank(12), modes, testRand())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func seatTwo(t *testing.T, s *Session) (*Player, *Player) {
	t.Helper()
	a, _, err := AddPlayer(s, "Alice", "", testRand())
	if err != nil {
		t.Fatalf("add alice: %v", err)
	}
	b, _, err := AddPlayer(s, "Bob", "", testRand())
	if err != nil {
		t.Fatalf("add bob: %v", err)
	}
	return a, b
}

func startedSession(t *testing.T, modes Modes) *Session {
	t.Helper()
	s := newTestSession(t, modes)
	seatTwo(t, s)
	if err := SelectSecretWord(s, 0, 0); err != nil {
		t.Fatalf("select 0: %v", err)
	}
	if err := SelectSecretWord(s, 1, 2); err != nil {
		t.Fatalf("select 1: %v", err)
	}
	return s
}

func TestNewSession_InsufficientWords(t *testing.T) {
	_, err := NewSession("X", "cfg", 6, wordBank(5), Modes{}, testRand())
	if !errors.Is(err, ErrInsufficientWords) {
		t.Fatalf("expected ErrInsufficientWords, got %v", err)
	}
}

func TestNewSession_InvalidGridSize(t *testing.T) {
	_, err := NewSession("X", "cfg", 1, wordBank(5), Modes{}, testRand())
	if !errors.Is(err, ErrInvalidGridSize) {
		t.Fatalf("expected ErrInvalidGridSize, got %v", err)
	}
}

func TestOnlineGameScenario(t *testing.T) {
	s := newTestSession(t, Modes{})
	if s.Phase != PhaseWaiting {
		t.Fatalf("expected waiting, got %s", s.Phase)
	}

	if _, outcome, err := AddPlayer(s, "Alice", "", testRand()); err != nil || outcome != JoinedNew {
		t.Fatalf("add alice: outcome=%v err=%v", outcome, err)
	}
	if s.Phase != PhaseWaiting || len(s.Players) != 1 {
		t.Fatalf("expected waiting with 1 seat, got %s/%d", s.Phase, len(s.Players))
	}

	if _, outcome, err := AddPlayer(s, "Bob", "", testRand()); err != nil || outcome != JoinedAndFilled {
		t.Fatalf("add bob: outcome=%v err=%v", outcome, err)
	}
	if s.Phase != PhaseSelecting {
		t.Fatalf("expected selecting, got %s", s.Phase)
	}

	if err := SelectSecretWord(s, 0, 0); err != nil {
		t.Fatalf("select A: %v", err)
	}
	if s.Phase != PhaseSelecting {
		t.Fatalf("expected still selecting, got %s", s.Phase)
	}
	if err := SelectSecretWord(s, 1, 2); err != nil {
		t.Fatalf("select B: %v", err)
	}
	if s.Phase != PhasePlaying || s.Turn.CurrentTurn != 0 {
		t.Fatalf("expected playing with turn 0, got %s/%d", s.Phase, s.Turn.CurrentTurn)
	}

	if err := AskQuestion(s, 0, "does it start with a vowel?"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if _, err := AnswerQuestion(s, 1, false); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if s.Turn.CurrentTurn != 1 || s.Turn.PendingQuestion != nil || s.Turn.AwaitingAnswer {
		t.Fatalf("expected turn 1 and empty mailbox, got %+v", s.Turn)
	}

	correct, err := MakeGuess(s, 1, "definitely-not-a-word")
	if err != nil || correct {
		t.Fatalf("wrong guess: correct=%v err=%v", correct, err)
	}
	if s.Turn.CurrentTurn != 0 || s.Phase != PhasePlaying {
		t.Fatalf("expected turn 0 playing, got %d/%s", s.Turn.CurrentTurn, s.Phase)
	}

	bWord := s.Board[2].Word
	correct, err = MakeGuess(s, 0, bWord)
	if err != nil || !correct {
		t.Fatalf("right guess: correct=%v err=%v", correct, err)
	}
	if s.Phase != PhaseFinished || s.Turn.Winner == nil || *s.Turn.Winner != 0 {
		t.Fatalf("expected finished with winner 0, got %s/%v", s.Phase, s.Turn.Winner)
	}
	if s.Turn.CurrentTurn != 0 {
		t.Fatalf("correct guess must not move the turn, got %d", s.Turn.CurrentTurn)
	}
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		t.Fatalf("expected start and finish timestamps")
	}
}

func TestAddPlayer_DuplicateNameCaseInsensitive(t *testing.T) {
	s := newTestSession(t, Modes{})
	if _, _, err := AddPlayer(s, "Sam", "", testRand()); err != nil {
		t.Fatalf("add sam: %v", err)
	}
	_, _, err := AddPlayer(s, "  sam ", "", testRand())
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if len(s.Players) != 1 {
		t.Fatalf("seat count changed: %d", len(s.Players))
	}
}

func TestAddPlayer_Validation(t *testing.T) {
	s := newTestSession(t, Modes{})
	if _, _, err := AddPlayer(s, "   ", "", testRand()); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	long := "abcdefghijklmnopqrstuvwxyzabcdefghij"
	if _, _, err := AddPlayer(s, long, "", testRand()); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
}

func TestAddPlayer_FullRoom(t *testing.T) {
	s := newTestSession(t, Modes{})
	seatTwo(t, s)
	_, _, err := AddPlayer(s, "Carol", "", testRand())
	if !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}
	_, _, err = AddPlayer(s, "Carol", "not-a-seated-id", testRand())
	if !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected ErrGameFull for unknown id, got %v", err)
	}
}

func TestAddPlayer_ReconnectIsIdempotent(t *testing.T) {
	s := newTestSession(t, Modes{})
	a, b := seatTwo(t, s)
	SetConnected(s, 0, false)

	for i := 0; i < 3; i++ {
		p, outcome, err := AddPlayer(s, "whatever", a.ID, testRand())
		if err != nil {
			t.Fatalf("reconnect: %v", err)
		}
		if outcome != Reconnected || p != a {
			t.Fatalf("expected reconnect of seat 0, got outcome=%v", outcome)
		}
	}
	if len(s.Players) != 2 || s.Players[0] != a || s.Players[1] != b {
		t.Fatalf("seat order changed")
	}
	if !a.Connected {
		t.Fatalf("expected reconnected player to be connected")
	}
	if s.Phase != PhaseSelecting {
		t.Fatalf("reconnect must not move phase, got %s", s.Phase)
	}
}

func TestAddPlayer_RandomSecretWords(t *testing.T) {
	s := newTestSession(t, Modes{RandomSecretWords: true})
	a, b := seatTwo(t, s)
	if s.Phase != PhasePlaying {
		t.Fatalf("expected playing, got %s", s.Phase)
	}
	if a.SecretWordIndex == nil || b.SecretWordIndex == nil {
		t.Fatalf("expected both words assigned")
	}
	if *a.SecretWordIndex == *b.SecretWordIndex {
		t.Fatalf("players share secret word %d", *a.SecretWordIndex)
	}
	if !a.HasSelectedWord || !b.HasSelectedWord {
		t.Fatalf("expected HasSelectedWord on both seats")
	}
}

func TestAddPlayer_RandomWordsNeverCollide(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		s, err := NewSession("X", "cfg", 2, wordBank(2), Modes{RandomSecretWords: true}, rand.New(rand.NewPCG(seed, seed)))
		if err != nil {
			t.Fatal(err)
		}
		r := rand.New(rand.NewPCG(seed, 7))
		_, _, _ = AddPlayer(s, "a", "", r)
		_, _, _ = AddPlayer(s, "b", "", r)
		if *s.Players[0].SecretWordIndex == *s.Players[1].SecretWordIndex {
			t.Fatalf("seed %d: duplicate secret word", seed)
		}
	}
}

func TestSelectSecretWord_Rules(t *testing.T) {
	s := newTestSession(t, Modes{})
	if err := SelectSecretWord(s, 0, 0); !errors.Is(err, ErrNotSelecting) {
		t.Fatalf("expected ErrNotSelecting while waiting, got %v", err)
	}
	seatTwo(t, s)

	tests := []struct {
		name string
		seat int
		card int
		want error
	}{
		{"out of range high", 0, 4, ErrInvalidCard},
		{"out of range low", 0, -1, ErrInvalidCard},
		{"unknown seat", 2, 0, ErrUnknownPlayer},
		{"first pick", 0, 1, nil},
		{"second pick by same seat", 0, 3, ErrWordAlreadySelected},
		{"opponent claims same card", 1, 1, ErrWordTaken},
		{"opponent picks other card", 1, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SelectSecretWord(s, tt.seat, tt.card)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if s.Phase != PhasePlaying {
		t.Fatalf("expected playing, got %s", s.Phase)
	}
	if err := SelectSecretWord(s, 1, 0); !errors.Is(err, ErrNotSelecting) {
		t.Fatalf("expected ErrNotSelecting after start, got %v", err)
	}
}

func TestSelectSecretWord_NoSharedWordUnderAnyOrder(t *testing.T) {
	for first := 0; first < 2; first++ {
		for card := 0; card < 4; card++ {
			s := newTestSession(t, Modes{})
			seatTwo(t, s)
			if err := SelectSecretWord(s, first, card); err != nil {
				t.Fatal(err)
			}
			for other := 0; other < 4; other++ {
				_ = SelectSecretWord(s, 1-first, other)
			}
			a, b := s.Players[0].SecretWordIndex, s.Players[1].SecretWordIndex
			if a == nil || b == nil {
				t.Fatalf("expected both seats to hold a word")
			}
			if *a == *b {
				t.Fatalf("seats share card %d", *a)
			}
		}
	}
}

func TestFlipCard_Toggles(t *testing.T) {
	s := startedSession(t, Modes{})

	on, err := FlipCard(s, 1, 3)
	if err != nil || !on {
		t.Fatalf("first flip: on=%v err=%v", on, err)
	}
	on, err = FlipCard(s, 1, 3)
	if err != nil || on {
		t.Fatalf("second flip: on=%v err=%v", on, err)
	}
	if len(s.Players[1].FlippedCards) != 0 {
		t.Fatalf("expected no flipped cards")
	}
	if _, err := FlipCard(s, 0, 99); !errors.Is(err, ErrInvalidCard) {
		t.Fatalf("expected ErrInvalidCard, got %v", err)
	}
	if s.Turn.CurrentTurn != 0 {
		t.Fatalf("flip moved the turn")
	}
	if len(s.Players[0].FlippedCards) != 0 {
		t.Fatalf("flips must not mirror to the opponent")
	}
}

func TestFlipCard_RequiresPlaying(t *testing.T) {
	s := newTestSession(t, Modes{})
	seatTwo(t, s)
	if _, err := FlipCard(s, 0, 0); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying, got %v", err)
	}
}

func TestAskQuestion_Rules(t *testing.T) {
	s := startedSession(t, Modes{})

	if err := AskQuestion(s, 1, "is it red?"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if err := AskQuestion(s, 0, "   "); !errors.Is(err, ErrQuestionRequired) {
		t.Fatalf("expected ErrQuestionRequired, got %v", err)
	}
	if err := AskQuestion(s, 0, "is it red?"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if err := AskQuestion(s, 0, "is it blue?"); !errors.Is(err, ErrQuestionPending) {
		t.Fatalf("expected ErrQuestionPending, got %v", err)
	}
	if _, err := AnswerQuestion(s, 0, true); !errors.Is(err, ErrCannotAnswerOwnQuestion) {
		t.Fatalf("expected ErrCannotAnswerOwnQuestion, got %v", err)
	}
	if _, err := MakeGuess(s, 0, "word00"); !errors.Is(err, ErrQuestionPending) {
		t.Fatalf("expected ErrQuestionPending on guess, got %v", err)
	}
	if err := EndTurn(s, 0); !errors.Is(err, ErrQuestionPending) {
		t.Fatalf("expected ErrQuestionPending on end turn, got %v", err)
	}

	rec, err := AnswerQuestion(s, 1, true)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if rec.Answer == nil || !*rec.Answer || rec.Question != "is it red?" || rec.AskerIndex != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, err := AnswerQuestion(s, 0, true); !errors.Is(err, ErrNoPendingQuestion) {
		t.Fatalf("expected ErrNoPendingQuestion, got %v", err)
	}
	if len(s.Questions) != 1 {
		t.Fatalf("expected 1 logged question, got %d", len(s.Questions))
	}
}

func TestTurnInvariant_AskAnswerPairs(t *testing.T) {
	s := startedSession(t, Modes{})
	for i := 0; i < 6; i++ {
		asker := s.Turn.CurrentTurn
		if err := AskQuestion(s, asker, "q"); err != nil {
			t.Fatalf("round %d ask: %v", i, err)
		}
		if _, err := AnswerQuestion(s, 1-asker, i%2 == 0); err != nil {
			t.Fatalf("round %d answer: %v", i, err)
		}
		if s.Turn.CurrentTurn != 1-asker {
			t.Fatalf("round %d: turn %d, expected answerer %d", i, s.Turn.CurrentTurn, 1-asker)
		}
		if s.Turn.PendingQuestion != nil {
			t.Fatalf("round %d: mailbox not cleared", i)
		}
	}
}

func TestMakeGuess_CaseInsensitive(t *testing.T) {
	s := startedSession(t, Modes{})
	target := s.Board[*s.Players[1].SecretWordIndex].Word
	correct, err := MakeGuess(s, 0, "  "+toUpper(target)+" ")
	if err != nil || !correct {
		t.Fatalf("expected correct guess, got %v/%v", correct, err)
	}
	if _, err := MakeGuess(s, 1, "x"); !errors.Is(err, ErrGameFinished) {
		t.Fatalf("expected ErrGameFinished, got %v", err)
	}
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func TestMakeGuess_WrongTurn(t *testing.T) {
	s := startedSession(t, Modes{})
	if _, err := MakeGuess(s, 1, "word00"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := MakeGuess(s, 0, " "); !errors.Is(err, ErrGuessRequired) {
		t.Fatalf("expected ErrGuessRequired, got %v", err)
	}
}

func TestEndTurn(t *testing.T) {
	s := startedSession(t, Modes{})
	if err := EndTurn(s, 1); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if err := EndTurn(s, 0); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if s.Turn.CurrentTurn != 1 {
		t.Fatalf("expected turn 1, got %d", s.Turn.CurrentTurn)
	}
	if err := EndTurn(s, 1); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if s.Turn.CurrentTurn != 0 {
		t.Fatalf("expected turn 0, got %d", s.Turn.CurrentTurn)
	}
}

func TestLocalMode_SkipsTurnChecks(t *testing.T) {
	s := startedSession(t, Modes{IsLocalMode: true})

	if err := AskQuestion(s, 1, "out of turn?"); err != nil {
		t.Fatalf("local ask: %v", err)
	}
	if _, err := AnswerQuestion(s, 0, true); err != nil {
		t.Fatalf("local answer: %v", err)
	}
	if s.Turn.CurrentTurn != 0 {
		t.Fatalf("expected answerer to hold the turn, got %d", s.Turn.CurrentTurn)
	}

	correct, err := MakeGuess(s, 1, "nope")
	if err != nil || correct {
		t.Fatalf("local guess out of turn: %v/%v", correct, err)
	}
	if s.Turn.CurrentTurn != 0 {
		t.Fatalf("expected turn to pass to seat 0, got %d", s.Turn.CurrentTurn)
	}
}
