package sessions

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linkshare/linkshare/backend/session-store/internal/models"
	"github.com/linkshare/linkshare/backend/session-store/internal/schema"
)

// Kind locates a session type: its collection and the unique token field.
type Kind struct {
	Collection string
	TokenField string
}

var (
	AccessKind  = Kind{Collection: schema.AccessTokenSessions, TokenField: "access_token"}
	RefreshKind = Kind{Collection: schema.RefreshTokenSessions, TokenField: "refresh_token"}
)

// AccessTokenSession is a document in access_token_sessions. MongoDB removes it
// once Expired ("exp") is in the past.
type AccessTokenSession struct {
	ObjectID    primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	AccessToken string             `json:"access_token" bson:"access_token"`
	Expired     time.Time          `json:"exp" bson:"exp"`
	UserData    *models.UserData   `json:"user_data" bson:"user_data"`
}

// RefreshTokenSession is a document in refresh_token_sessions.
type RefreshTokenSession struct {
	ObjectID     primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	RefreshToken string             `json:"refresh_token" bson:"refresh_token"`
	Expired      time.Time          `json:"exp" bson:"exp"`
	UserData     *models.UserData   `json:"user_data" bson:"user_data"`
}

func (s *AccessTokenSession) Token() string { return s.AccessToken }
func (s *AccessTokenSession) ExpiresAt() time.Time { return s.Expired }
func (s *AccessTokenSession) User() *models.UserData { return s.UserData }
func (*AccessTokenSession) Kind() Kind { return AccessKind }
func (s *AccessTokenSession) assignID() { s.ObjectID = newID(s.ObjectID) }
func (s *RefreshTokenSession) Token() string { return s.RefreshToken }
func (s *RefreshTokenSession) ExpiresAt() time.Time { return s.Expired }
func (s *RefreshTokenSession) User() *models.UserData { return s.UserData }
func (*RefreshTokenSession) Kind() Kind { return RefreshKind }
func (s *RefreshTokenSession) assignID() { s.ObjectID = newID(s.ObjectID) }

// Subject is the owning user's id, or "" when the session has no user data.
func (s *AccessTokenSession) Subject() string {
	if s.UserData == nil {
		return ""
	}
	return s.UserData.Subject()
}

func newID(id primitive.ObjectID) primitive.ObjectID {
	if id.IsZero() {
		return primitive.NewObjectID()
	}
	return id
}

// Record is implemented by pointers to the session types. The generic stores
// are written against it.
type Record[S any] interface {
	*S
	Token() string
	ExpiresAt() time.Time
	User() *models.UserData
	Kind() Kind
	assignID()
}

// kindOf returns the Kind for session type S.
func kindOf[S any, P Record[S]]() Kind {
	return P(new(S)).Kind()
}

// expired reports whether exp has passed at now. A zero-grace TTL index makes a
// document eligible for removal at exactly that point.
func expired(exp, now time.Time) bool {
	return !exp.After(now)
}
