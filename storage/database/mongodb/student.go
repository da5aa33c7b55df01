package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/icpschool/schoolpay/core/student"
)

type studentRepository struct {
	col *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *mongo.Database) student.Repository {
	return &studentRepository{col: db.Collection(studentsCollection)}
}

// balanceDoc is the stored shape of a fee line item. Amounts are kept as
// canonical decimal strings so no precision is lost in the document store.
type balanceDoc struct {
	ID          string `bson:"id"`
	Description string `bson:"description"`
	Amount      string `bson:"amount"`
	Status      string `bson:"status"`
}

type studentDoc struct {
	ID            string       `bson:"_id"`
	StudentNumber string       `bson:"student_number"`
	Name          string       `bson:"name"`
	Grade         string       `bson:"grade"`
	Strand        string       `bson:"strand"`
	Section       string       `bson:"section"`
	Balances      []balanceDoc `bson:"balances"`
	CreatedAt     time.Time    `bson:"created_at"`
	UpdatedAt     time.Time    `bson:"updated_at"`
}

func toBalanceDoc(b student.Balance) balanceDoc {
	return balanceDoc{
		ID:          b.ID,
		Description: b.Description,
		Amount:      b.Amount.String(),
		Status:      b.Status,
	}
}

func (d balanceDoc) toBalance() (student.Balance, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return student.Balance{}, errors.Wrapf(err, "parsing stored amount %q", d.Amount)
	}
	return student.Balance{
		ID:          d.ID,
		Description: d.Description,
		Amount:      amount,
		Status:      d.Status,
	}, nil
}

func toStudentDoc(s student.Student) studentDoc {
	doc := studentDoc{
		ID:            s.ID,
		StudentNumber: s.StudentNumber,
		Name:          s.Name,
		Grade:         s.Grade,
		Strand:        s.Strand,
		Section:       s.Section,
		Balances:      make([]balanceDoc, 0, len(s.Balances)),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	for _, b := range s.Balances {
		doc.Balances = append(doc.Balances, toBalanceDoc(b))
	}
	return doc
}

func (d studentDoc) toStudent() (student.Student, error) {
	s := student.Student{
		ID:            d.ID,
		StudentNumber: d.StudentNumber,
		Name:          d.Name,
		Grade:         d.Grade,
		Strand:        d.Strand,
		Section:       d.Section,
		Balances:      make([]student.Balance, 0, len(d.Balances)),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, bd := range d.Balances {
		b, err := bd.toBalance()
		if err != nil {
			return student.Student{}, err
		}
		s.Balances = append(s.Balances, b)
	}
	return s, nil
}

func (repo *studentRepository) CheckDuplicate(ctx context.Context, studentNumber, name string, excluded ...student.Student) error {
	filter := bson.M{"student_number": studentNumber, "name": name}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, s := range excluded {
			ids = append(ids, s.ID)
		}
		filter["_id"] = bson.M{"$nin": ids}
	}
	n, err := repo.col.CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "counting matching students")
	}
	if n > 0 {
		return student.ErrStudentExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if s.ID == "" {
		s.ID = primitive.NewObjectID().Hex()
	}
	if _, err := repo.col.InsertOne(ctx, toStudentDoc(s)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrStudentExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) query(ctx context.Context, filter bson.M) ([]student.Student, error) {
	cursor, err := repo.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	var docs []studentDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	students := make([]student.Student, 0, len(docs))
	for _, doc := range docs {
		s, err := doc.toStudent()
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	return repo.query(ctx, bson.M{})
}

func (repo *studentRepository) FilterStudents(ctx context.Context, sel student.Selection) ([]student.Student, error) {
	return repo.query(ctx, bson.M{"grade": sel.Grade, "strand": sel.Strand, "section": sel.Section})
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var doc studentDoc
	if err := repo.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return doc.toStudent()
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	update := bson.M{"$set": bson.M{
		"student_number": s.StudentNumber,
		"name":           s.Name,
		"grade":          s.Grade,
		"strand":         s.Strand,
		"section":        s.Section,
		"updated_at":     s.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc studentDoc
	if err := repo.col.FindOneAndUpdate(ctx, bson.M{"_id": s.ID}, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrStudentExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return doc.toStudent()
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if res.DeletedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) ReplaceBalances(ctx context.Context, studentID string, balances []student.Balance) error {
	docs := make([]balanceDoc, 0, len(balances))
	for _, b := range balances {
		docs = append(docs, toBalanceDoc(b))
	}
	update := bson.M{"$set": bson.M{"balances": docs, "updated_at": time.Now().UTC()}}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": studentID}, update)
	if err != nil {
		return errors.Wrap(err, "replacing balances")
	}
	if res.MatchedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) AppendBalance(ctx context.Context, studentID string, b student.Balance) error {
	update := bson.M{
		"$push": bson.M{"balances": toBalanceDoc(b)},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": studentID}, update)
	if err != nil {
		return errors.Wrap(err, "appending balance")
	}
	if res.MatchedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) UpdateBalance(ctx context.Context, studentID string, b student.Balance) error {
	filter := bson.M{"_id": studentID, "balances.id": b.ID}
	update := bson.M{"$set": bson.M{"balances.$": toBalanceDoc(b), "updated_at": time.Now().UTC()}}
	res, err := repo.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "updating balance")
	}
	if res.MatchedCount == 0 {
		// tell a missing student apart from a missing line item
		if _, err = repo.GetStudentByID(ctx, studentID); err != nil {
			return err
		}
		return student.ErrBalanceNotFound
	}
	return nil
}

func (repo *studentRepository) RemoveBalance(ctx context.Context, studentID, balanceID string) error {
	update := bson.M{
		"$pull": bson.M{"balances": bson.M{"id": balanceID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": studentID}, update)
	if err != nil {
		return errors.Wrap(err, "removing balance")
	}
	if res.MatchedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}
