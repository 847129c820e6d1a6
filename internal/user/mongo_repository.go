package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

type mongoAvatar struct {
	PublicID string `bson:"public_id"`
	URL      string `bson:"url"`
}

type mongoTask struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Completed   bool      `bson:"completed"`
	CreatedAt   time.Time `bson:"created_at"`
}

// mongoUser is one document in the users collection, tasks embedded
type mongoUser struct {
	ID                     string       `bson:"_id"`
	Name                   string       `bson:"name"`
	Email                  string       `bson:"email"`
	Password               string       `bson:"password,omitempty"`
	Avatar                 *mongoAvatar `bson:"avatar,omitempty"`
	Verified               bool         `bson:"verified"`
	OTP                    *int         `bson:"otp"`
	OTPExpiry              *time.Time   `bson:"otp_expiry"`
	ResetPasswordOTP       *int         `bson:"resetPasswordOtp"`
	ResetPasswordOTPExpiry *time.Time   `bson:"resetPasswordOtpExpiry"`
	Tasks                  []mongoTask  `bson:"tasks"`
	CreatedAt              time.Time    `bson:"created_at"`
	UpdatedAt              time.Time    `bson:"updated_at"`
}

// MongoRepository is the MongoDB Store
type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(usersCollection), now: time.Now}
}

// EnsureIndexes creates the unique email index
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, u *User) error {
	prepareNew(u, r.now())

	if _, err := r.coll.InsertOne(ctx, toMongoUser(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id uuid.UUID, opts ...ReadOption) (*User, error) {
	u, err := r.findOne(ctx, bson.M{"_id": id.String()}, applyReadOptions(opts))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, err
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string, opts ...ReadOption) (*User, error) {
	u, err := r.findOne(ctx, bson.M{"email": email}, applyReadOptions(opts))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, err
}

func (r *MongoRepository) GetByResetOTP(ctx context.Context, otp int, now time.Time, opts ...ReadOption) (*User, error) {
	filter := bson.M{
		"resetPasswordOtp":       otp,
		"resetPasswordOtpExpiry": bson.M{"$gt": now},
	}
	u, err := r.findOne(ctx, filter, applyReadOptions(opts))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by reset otp: %w", err)
	}
	return u, err
}

// Save replaces every field of the document except _id and created_at.
// The password is only written when the user carries a hash.
func (r *MongoRepository) Save(ctx context.Context, u *User) error {
	u.UpdatedAt = r.now()
	doc := toMongoUser(u)

	set := bson.M{
		"name":                   doc.Name,
		"email":                  doc.Email,
		"avatar":                 doc.Avatar,
		"verified":               doc.Verified,
		"otp":                    doc.OTP,
		"otp_expiry":             doc.OTPExpiry,
		"resetPasswordOtp":       doc.ResetPasswordOTP,
		"resetPasswordOtpExpiry": doc.ResetPasswordOTPExpiry,
		"tasks":                  doc.Tasks,
		"updated_at":             doc.UpdatedAt,
	}
	if doc.Password != "" {
		set["password"] = doc.Password
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M, o readOptions) (*User, error) {
	findOpts := options.FindOne()
	if !o.withPassword {
		findOpts.SetProjection(bson.M{"password": 0})
	}

	var doc mongoUser
	if err := r.coll.FindOne(ctx, filter, findOpts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return fromMongoUser(&doc)
}

func toMongoUser(u *User) *mongoUser {
	doc := &mongoUser{
		ID:                     u.ID.String(),
		Name:                   u.Name,
		Email:                  u.Email,
		Password:               u.PasswordHash,
		Verified:               u.Verified,
		OTP:                    u.OTP,
		OTPExpiry:              u.OTPExpiry,
		ResetPasswordOTP:       u.ResetPasswordOTP,
		ResetPasswordOTPExpiry: u.ResetPasswordOTPExpiry,
		Tasks:                  make([]mongoTask, 0, len(u.Tasks)),
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
	if u.Avatar != nil {
		doc.Avatar = &mongoAvatar{PublicID: u.Avatar.PublicID, URL: u.Avatar.URL}
	}
	for _, t := range u.Tasks {
		doc.Tasks = append(doc.Tasks, mongoTask{
			ID:          t.ID.String(),
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt,
		})
	}
	return doc
}

func fromMongoUser(doc *mongoUser) (*User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", doc.ID, err)
	}

	u := &User{
		ID:                     id,
		Name:                   doc.Name,
		Email:                  doc.Email,
		PasswordHash:           doc.Password,
		Verified:               doc.Verified,
		OTP:                    doc.OTP,
		OTPExpiry:              doc.OTPExpiry,
		ResetPasswordOTP:       doc.ResetPasswordOTP,
		ResetPasswordOTPExpiry: doc.ResetPasswordOTPExpiry,
		Tasks:                  make([]Task, 0, len(doc.Tasks)),
		CreatedAt:              doc.CreatedAt,
		UpdatedAt:              doc.UpdatedAt,
	}
	if doc.Avatar != nil {
		u.Avatar = &Avatar{PublicID: doc.Avatar.PublicID, URL: doc.Avatar.URL}
	}
	for _, t := range doc.Tasks {
		taskID, err := uuid.Parse(t.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q: %w", t.ID, err)
		}
		u.Tasks = append(u.Tasks, Task{
			ID:          taskID,
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt,
		})
	}
	return u, nil
}
