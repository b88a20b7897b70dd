package constants

const (
	// Approved tasks of a round joined with their creators, oldest decision first.
	// Bind vars are written with ? and rebound per driver by sqlx.
	GetApprovedTasksForStandings = `
	SELECT t.id, t.creator_id, t.points, t.difficulty_multiplier,
	       u.name AS user_name, u.avatar AS user_avatar
	FROM tasks t
	JOIN users u ON u.id = t.creator_id
	WHERE t.round_id = ? AND t.approval = ?
	ORDER BY t.decided_at ASC, t.created_at ASC, t.id ASC
	`

	CountRoundByID = `
	SELECT COUNT(1) FROM rounds WHERE id = ?
	`
)
