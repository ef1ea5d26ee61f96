package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wayfarelab/wayfare/internal/domain"
	pkgkafka "github.com/wayfarelab/wayfare/pkg/kafka"
)

// Kafka topics for domain events.
const (
	TopicUserRegistered  = "wayfare.user.registered"
	TopicFriendRequested = "wayfare.friend.requested"
	TopicFriendAccepted  = "wayfare.friend.accepted"
	TopicMemberInvited   = "wayfare.vacation.member_invited"
	TopicPostCreated     = "wayfare.post.created"
	TopicMemoryUploaded  = "wayfare.memory.uploaded"
)

// Aggregate types.
const (
	AggregateTypeUser     = "user"
	AggregateTypeVacation = "vacation"
	AggregateTypePost     = "post"
	AggregateTypeMemory   = "memory"
)

// Source identifier for events originating from this service.
const Source = "wayfare"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID      string `json:"id"`
	Usertag string `json:"usertag"`
	Email   string `json:"email"`
}

// FriendshipData is the payload for friend.requested and friend.accepted
// events.
type FriendshipData struct {
	FriendshipID string `json:"friendship_id"`
	RequesterID  string `json:"requester_id"`
	AddresseeID  string `json:"addressee_id"`
}

// MemberInvitedData is the payload for a vacation.member_invited event.
type MemberInvitedData struct {
	VacationID string `json:"vacation_id"`
	InviterID  string `json:"inviter_id"`
	InviteeID  string `json:"invitee_id"`
}

// PostCreatedData is the payload for a post.created event.
type PostCreatedData struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
}

// MemoryUploadedData is the payload for a memory.uploaded event.
type MemoryUploadedData struct {
	MemoryID   string `json:"memory_id"`
	VacationID string `json:"vacation_id"`
	UploadedBy string `json:"uploaded_by"`
}

// Producer publishes domain events to Kafka. A nil kafka producer turns all
// publishes into no-ops, which is how the service runs with Kafka disabled.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:      user.ID,
		Usertag: user.Usertag,
		Email:   user.Email,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

// PublishFriendRequested publishes a friend.requested event.
func (p *Producer) PublishFriendRequested(ctx context.Context, f *domain.Friendship) error {
	data := FriendshipData{
		FriendshipID: f.ID,
		RequesterID:  f.RequesterID,
		AddresseeID:  f.AddresseeID,
	}
	return p.publish(ctx, TopicFriendRequested, f.ID, AggregateTypeUser, data)
}

// PublishFriendAccepted publishes a friend.accepted event.
func (p *Producer) PublishFriendAccepted(ctx context.Context, f *domain.Friendship) error {
	data := FriendshipData{
		FriendshipID: f.ID,
		RequesterID:  f.RequesterID,
		AddresseeID:  f.AddresseeID,
	}
	return p.publish(ctx, TopicFriendAccepted, f.ID, AggregateTypeUser, data)
}

// PublishMemberInvited publishes a vacation.member_invited event.
func (p *Producer) PublishMemberInvited(ctx context.Context, vacationID, inviterID, inviteeID string) error {
	data := MemberInvitedData{
		VacationID: vacationID,
		InviterID:  inviterID,
		InviteeID:  inviteeID,
	}
	return p.publish(ctx, TopicMemberInvited, vacationID, AggregateTypeVacation, data)
}

// PublishPostCreated publishes a post.created event.
func (p *Producer) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	data := PostCreatedData{
		PostID:   post.ID,
		AuthorID: post.AuthorID,
	}
	return p.publish(ctx, TopicPostCreated, post.ID, AggregateTypePost, data)
}

// PublishMemoryUploaded publishes a memory.uploaded event.
func (p *Producer) PublishMemoryUploaded(ctx context.Context, m *domain.Memory) error {
	data := MemoryUploadedData{
		MemoryID:   m.ID,
		VacationID: m.VacationID,
		UploadedBy: m.UploadedBy,
	}
	return p.publish(ctx, TopicMemoryUploaded, m.ID, AggregateTypeMemory, data)
}
