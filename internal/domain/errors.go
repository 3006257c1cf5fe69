package domain

import "errors"

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindForbidden
	KindCapacity
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindCapacity:
		return "capacity"
	default:
		return "internal"
	}
}

// Error: бизнес-ошибка с видом. Всё, что не *Error, считается инфраструктурной ошибкой.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

// Is: сентинел вида (пустой Msg) совпадает с любой ошибкой того же вида.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" {
		return e.Kind == t.Kind
	}
	return e == t
}

func newErr(kind ErrorKind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Validation(msg string) error { return newErr(KindValidation, msg) }
func NotFound(msg string) error   { return newErr(KindNotFound, msg) }
func Conflict(msg string) error   { return newErr(KindConflict, msg) }
func Forbidden(msg string) error  { return newErr(KindForbidden, msg) }

// Сентинелы видов для errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrCapacity   = &Error{Kind: KindCapacity}
)

var (
	ErrUserNotFound    = newErr(KindNotFound, "user not found")
	ErrRoomNotFound    = newErr(KindNotFound, "room not found")
	ErrMessageNotFound = newErr(KindNotFound, "message not found")
	ErrInviteNotFound  = newErr(KindNotFound, "invite code not found or expired")

	ErrUsernameTaken = newErr(KindConflict, "username already taken")
	ErrEmailTaken    = newErr(KindConflict, "email already registered")
	ErrAlreadyJoined = newErr(KindConflict, "user already joined the room")
	ErrInviteExists  = newErr(KindConflict, "room already has an active invite code")
	ErrUserHasRooms  = newErr(KindConflict, "user still belongs to rooms")

	ErrNotInRoom          = newErr(KindForbidden, "user not in the room")
	ErrNotRoomCreator     = newErr(KindForbidden, "only the room creator can do this")
	ErrCreatorCannotLeave = newErr(KindForbidden, "creator cannot leave while other members remain")
	ErrNotAuthor          = newErr(KindForbidden, "only the author can edit the message")

	ErrRoomFull = newErr(KindCapacity, "room is full")
)

// KindOf возвращает вид бизнес-ошибки или 0 для инфраструктурных.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
