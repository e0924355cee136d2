package models

// FollowEdge is one row of the followers table: FollowerID sees FollowedID's posts.
type FollowEdge struct {
	FollowerID int64 `json:"follower_id"`
	FollowedID int64 `json:"followed_id"`
}
