package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CompanyRepository reads the companies collection
type CompanyRepository struct {
	coll *mongo.Collection
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *mongo.Database) *CompanyRepository {
	return &CompanyRepository{coll: db.Collection(CompaniesCollection)}
}

func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*entity.Company, error) {
	var company entity.Company
	if err := findByHexID(ctx, r.coll, id, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// UserRepository reads the users collection
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection)}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := findByHexID(ctx, r.coll, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func findByHexID(ctx context.Context, coll *mongo.Collection, id string, out interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return port.ErrNotFound
	}
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return port.ErrNotFound
		}
		return fmt.Errorf("failed to find %s: %w", coll.Name(), err)
	}
	return nil
}

var (
	_ port.CompanyRepository = (*CompanyRepository)(nil)
	_ port.UserRepository    = (*UserRepository)(nil)
)
