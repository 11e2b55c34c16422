package common

// MessageStatus tracks delivery state of a direct message. Transitions are
// one-directional: sent -> delivered -> read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

type NotificationType string

const (
	NewFollowerType   NotificationType = "new_follower"
	FriendRequestType NotificationType = "friend_request"
	FriendAcceptType  NotificationType = "friend_accept"
	NewMessageType    NotificationType = "new_message"
	PostLikeType      NotificationType = "post_like"
	PostCommentType   NotificationType = "post_comment"
	CommentLikeType   NotificationType = "comment_like"
	MentionType       NotificationType = "mention"
)

// Entity models a notification's entityId can point at.
const (
	EntityPost    = "Post"
	EntityComment = "Comment"
	EntityMessage = "Message"
	EntityUser    = "User"
)
