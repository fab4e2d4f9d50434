package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"wordguess/internal/game"
)

type MessageType string

// Client -> server.
const (
	TypeJoinGame         MessageType = "join_game"
	TypeFlipCard         MessageType = "flip_card"
	TypeAskQuestion      MessageType = "ask_question"
	TypeAnswerQuestion   MessageType = "answer_question"
	TypeMakeGuess        MessageType = "make_guess"
	TypeSelectSecretWord MessageType = "select_secret_word"
	TypeEndTurn          MessageType = "end_turn"
	TypeLeaveGame        MessageType = "leave_game"
)

// Server -> client.
const (
	TypeError             MessageType = "error"
	TypeGameState         MessageType = "game_state"
	TypePlayerJoined      MessageType = "player_joined"
	TypePlayerLeft        MessageType = "player_left"
	TypePlayerReconnected MessageType = "player_reconnected"
	TypeCardFlipped       MessageType = "card_flipped"
	TypeQuestionAsked     MessageType = "question_asked"
	TypeQuestionAnswered  MessageType = "question_answered"
	TypeGuessMade         MessageType = "guess_made"
	TypeGameOver          MessageType = "game_over"
	TypeGameExpired       MessageType = "game_expired"
	TypeWordSelected      MessageType = "word_selected"
	TypeTurnEnded         MessageType = "turn_ended"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrNotInGame      = errors.New("not in a game")
)

// ClientMessage is the closed set of inbound frames.
type ClientMessage interface {
	Type() MessageType
	validate() error
}

type JoinGame struct {
	GameCode   string `json:"gameCode"`
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId,omitempty"`
}

type FlipCard struct {
	CardIndex *int `json:"cardIndex"`
}

type AskQuestion struct {
	Question string `json:"question"`
}

type AnswerQuestion struct {
	Answer *bool `json:"answer"`
}

type MakeGuess struct {
	Word string `json:"word"`
}

type SelectSecretWord struct {
	CardIndex      *int `json:"cardIndex"`
	ForPlayerIndex *int `json:"forPlayerIndex,omitempty"`
}

type EndTurn struct{}

type LeaveGame struct{}

func (*JoinGame) Type() MessageType         { return TypeJoinGame }
func (*FlipCard) Type() MessageType         { return TypeFlipCard }
func (*AskQuestion) Type() MessageType      { return TypeAskQuestion }
func (*AnswerQuestion) Type() MessageType   { return TypeAnswerQuestion }
func (*MakeGuess) Type() MessageType        { return TypeMakeGuess }
func (*SelectSecretWord) Type() MessageType { return TypeSelectSecretWord }
func (*EndTurn) Type() MessageType          { return TypeEndTurn }
func (*LeaveGame) Type() MessageType        { return TypeLeaveGame }

func (m *JoinGame) validate() error {
	if m.GameCode == "" {
		return errors.New("gameCode is required")
	}
	return nil
}

func (m *FlipCard) validate() error {
	if m.CardIndex == nil {
		return errors.New("cardIndex is required")
	}
	return nil
}

func (*AskQuestion) validate() error { return nil }

func (m *AnswerQuestion) validate() error {
	if m.Answer == nil {
		return errors.New("answer is required")
	}
	return nil
}

func (*MakeGuess) validate() error { return nil }

func (m *SelectSecretWord) validate() error {
	if m.CardIndex == nil {
		return errors.New("cardIndex is required")
	}
	return nil
}

func (*EndTurn) validate() error   { return nil }
func (*LeaveGame) validate() error { return nil }

// clientMessages maps every inbound type to a constructor. Adding a type here
// without a dispatcher case is caught by TestDispatchCoversAllMessageTypes.
var clientMessages = map[MessageType]func() ClientMessage{
	TypeJoinGame:         func() ClientMessage { return &JoinGame{} },
	TypeFlipCard:         func() ClientMessage { return &FlipCard{} },
	TypeAskQuestion:      func() ClientMessage { return &AskQuestion{} },
	TypeAnswerQuestion:   func() ClientMessage { return &AnswerQuestion{} },
	TypeMakeGuess:        func() ClientMessage { return &MakeGuess{} },
	TypeSelectSecretWord: func() ClientMessage { return &SelectSecretWord{} },
	TypeEndTurn:          func() ClientMessage { return &EndTurn{} },
	TypeLeaveGame:        func() ClientMessage { return &LeaveGame{} },
}

// DecodeClientMessage parses a flat JSON frame such as
// {"type":"flip_card","cardIndex":3}.
func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var head struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, ErrInvalidMessage
	}
	newMsg, ok := clientMessages[head.Type]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %q", head.Type)
	}
	msg := newMsg()
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, ErrInvalidMessage
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// ServerMessage is the closed set of outbound frames.
type ServerMessage interface {
	messageType() MessageType
}

type header struct {
	Type MessageType `json:"type"`
}

func (h header) messageType() MessageType { return h.Type }

type ErrorMessage struct {
	header
	Message string `json:"message"`
}

type GameStateMessage struct {
	header
	game.PlayerView
}

type PlayerEvent struct {
	header
	PlayerIndex int    `json:"playerIndex"`
	PlayerName  string `json:"playerName"`
}

type CardFlippedMessage struct {
	header
	PlayerIndex int   `json:"playerIndex"`
	CardIndex   *int  `json:"cardIndex,omitempty"`
	Flipped     *bool `json:"flipped,omitempty"`
}

type QuestionAskedMessage struct {
	header
	PlayerIndex int    `json:"playerIndex"`
	Question    string `json:"question"`
}

type QuestionAnsweredMessage struct {
	header
	PlayerIndex int    `json:"playerIndex"`
	Question    string `json:"question"`
	Answer      bool   `json:"answer"`
	CurrentTurn int    `json:"currentTurn"`
}

type GuessMadeMessage struct {
	header
	PlayerIndex int    `json:"playerIndex"`
	Word        string `json:"word"`
	Correct     bool   `json:"correct"`
	CurrentTurn int    `json:"currentTurn"`
}

type GameOverMessage struct {
	header
	WinnerIndex int      `json:"winnerIndex"`
	WinnerName  string   `json:"winnerName"`
	SecretWords []string `json:"secretWords"`
}

type GameExpiredMessage struct {
	header
	Message string `json:"message"`
}

// WordSelectedMessage says that a seat chose, never which card.
type WordSelectedMessage struct {
	header
	PlayerIndex int        `json:"playerIndex"`
	Phase       game.Phase `json:"phase"`
}

type TurnEndedMessage struct {
	header
	NextPlayerIndex int `json:"nextPlayerIndex"`
}

func errorMessage(err error) ErrorMessage {
	return ErrorMessage{header: header{TypeError}, Message: err.Error()}
}

func gameStateMessage(v game.PlayerView) GameStateMessage {
	return GameStateMessage{header: header{TypeGameState}, PlayerView: v}
}

func playerEvent(t MessageType, index int, name string) PlayerEvent {
	return PlayerEvent{header: header{t}, PlayerIndex: index, PlayerName: name}
}

func encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}
