package game

import "errors"

// Config errors are fatal to session creation.
var (
	ErrInsufficientWords = errors.New("word bank has fewer words than the grid size")
	ErrInvalidGridSize   = errors.New("grid size must be at least 2")
)

// Domain errors are reported to the offending connection only.
var (
	ErrGameFull                = errors.New("game is full")
	ErrGameFinished            = errors.New("game is already over")
	ErrNameRequired            = errors.New("player name is required")
	ErrNameTooLong             = errors.New("player name is too long")
	ErrNameTaken               = errors.New("that name is already taken in this game")
	ErrUnknownPlayer           = errors.New("player is not part of this game")
	ErrNotSelecting            = errors.New("secret words can only be chosen before the game starts")
	ErrNotPlaying              = errors.New("the game is not in progress")
	ErrInvalidCard             = errors.New("card index is out of range")
	ErrWordAlreadySelected     = errors.New("you have already chosen a secret word")
	ErrWordTaken               = errors.New("that card is already your opponent's secret word")
	ErrNotYourTurn             = errors.New("it is not your turn")
	ErrQuestionPending         = errors.New("a question is still waiting for an answer")
	ErrNoPendingQuestion       = errors.New("there is no question to answer")
	ErrCannotAnswerOwnQuestion = errors.New("you cannot answer your own question")
	ErrQuestionRequired        = errors.New("question text is required")
	ErrGuessRequired           = errors.New("guess is required")
	ErrTextTooLong             = errors.New("text is too long")
)
