package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/icpschool/schoolpay/core/admin"
	"github.com/icpschool/schoolpay/core/student"
)

type adminRepository struct {
	col *mongo.Collection
}

var _ admin.Repository = (*adminRepository)(nil)

func NewAdminRepository(db *mongo.Database) admin.Repository {
	return &adminRepository{col: db.Collection(adminsCollection)}
}

type selectionDoc struct {
	Grade   string `bson:"grade"`
	Strand  string `bson:"strand"`
	Section string `bson:"section"`
}

type profileDoc struct {
	ID            string        `bson:"_id"`
	Name          string        `bson:"name"`
	Email         string        `bson:"email"`
	LastSelection *selectionDoc `bson:"last_selection,omitempty"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

func (d profileDoc) toProfile() admin.Profile {
	p := admin.Profile{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.LastSelection != nil {
		p.LastSelection = &student.Selection{
			Grade:   d.LastSelection.Grade,
			Strand:  d.LastSelection.Strand,
			Section: d.LastSelection.Section,
		}
	}
	return p
}

func (repo *adminRepository) GetProfileByID(ctx context.Context, id string) (admin.Profile, error) {
	var doc profileDoc
	if err := repo.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return admin.Profile{}, admin.ErrNotFound
		}
		return admin.Profile{}, errors.Wrap(err, "getting admin profile")
	}
	return doc.toProfile(), nil
}

func (repo *adminRepository) UpdateOrCreateProfile(ctx context.Context, p admin.Profile) (admin.Profile, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	update := bson.M{
		"$set":         bson.M{"name": p.Name, "email": p.Email, "updated_at": p.UpdatedAt},
		"$setOnInsert": bson.M{"created_at": p.CreatedAt},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.col.UpdateOne(ctx, bson.M{"_id": p.ID}, update, opts); err != nil {
		return admin.Profile{}, errors.Wrap(err, "upserting admin profile")
	}
	return repo.GetProfileByID(ctx, p.ID)
}

func (repo *adminRepository) SaveSelection(ctx context.Context, id string, sel student.Selection) error {
	update := bson.M{"$set": bson.M{
		"last_selection": selectionDoc{Grade: sel.Grade, Strand: sel.Strand, Section: sel.Section},
		"updated_at":     time.Now().UTC(),
	}}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return errors.Wrap(err, "saving selection")
	}
	if res.MatchedCount == 0 {
		return admin.ErrNotFound
	}
	return nil
}
