package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/torunhut/api/internal/domain"
	pfirestore "github.com/torunhut/api/internal/platform/firestore"
	"github.com/torunhut/api/internal/repositories"
)

const userCollection = "users"

type userDocument struct {
	Email       string    `firestore:"email"`
	DisplayName string    `firestore:"displayName,omitempty"`
	PhotoURL    string    `firestore:"photoURL,omitempty"`
	Role        string    `firestore:"role"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
	LastLoginAt time.Time `firestore:"lastLoginAt"`
}

// UserRepository persists shopper accounts in Firestore, keyed by the
// identity provider uid.
type UserRepository struct {
	users    *pfirestore.Collection[userDocument]
	provider *pfirestore.Provider
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	return &UserRepository{
		users:    pfirestore.NewCollection[userDocument](provider, userCollection, nil),
		provider: provider,
	}, nil
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	if r == nil || r.users == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	uid := strings.TrimSpace(user.ID)
	if uid == "" {
		return domain.User{}, errors.New("user id is required")
	}
	if _, err := r.users.Set(ctx, uid, fromDomainUser(user)); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if r == nil || r.users == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	doc, err := r.users.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(doc.ID, doc.Data), nil
}

func (r *UserRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.User], error) {
	if r == nil || r.users == nil {
		return domain.CursorPage[domain.User]{}, errors.New("user repository not initialised")
	}

	pageSize := normalisePageSize(pager.PageSize)
	cursor, err := decodeCursor(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.User]{}, err
	}

	docs, err := r.users.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor) > 0 {
			q = q.StartAfter(cursor...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.User]{}, err
	}

	page := domain.CursorPage[domain.User]{}
	for i, doc := range docs {
		if i == pageSize {
			break
		}
		page.Items = append(page.Items, toDomainUser(doc.ID, doc.Data))
	}
	if len(docs) > pageSize {
		last := docs[pageSize-1]
		token, err := encodeCursor(last.Data.CreatedAt, last.ID)
		if err != nil {
			return domain.CursorPage[domain.User]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID string, role domain.UserRole, updatedAt time.Time) (domain.User, error) {
	if r == nil || r.users == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	_, err := r.users.Update(ctx, userID, []firestore.Update{
		{Path: "role", Value: string(role)},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	if err != nil {
		return domain.User{}, err
	}
	return r.FindByID(ctx, userID)
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	if r == nil || r.users == nil {
		return 0, errors.New("user repository not initialised")
	}
	ref, err := r.users.Ref(ctx)
	if err != nil {
		return 0, err
	}
	return runCountAggregation(ctx, ref.Query, "users.count")
}

func fromDomainUser(user domain.User) userDocument {
	return userDocument{
		Email:       strings.ToLower(strings.TrimSpace(user.Email)),
		DisplayName: strings.TrimSpace(user.DisplayName),
		PhotoURL:    strings.TrimSpace(user.PhotoURL),
		Role:        string(user.Role),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

func toDomainUser(id string, doc userDocument) domain.User {
	role, ok := domain.ParseUserRole(doc.Role)
	if !ok {
		role = domain.RoleUser
	}
	return domain.User{
		ID:          id,
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		PhotoURL:    doc.PhotoURL,
		Role:        role,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		LastLoginAt: doc.LastLoginAt,
	}
}
