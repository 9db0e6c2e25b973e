package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions in the form ent's migrator consumes. Timestamps are
// stored as Unix milliseconds and JSON payloads as text.
var (
	// CoursesColumns holds the columns for the "courses" table.
	CoursesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "importance", Type: field.TypeString, Default: "medium"},
		{Name: "content_version", Type: field.TypeInt64, Default: 0},
		{Name: "created_at", Type: field.TypeInt64},
	}
	// CoursesTable holds the schema information for the "courses" table.
	CoursesTable = &schema.Table{
		Name:       "courses",
		Columns:    CoursesColumns,
		PrimaryKey: []*schema.Column{CoursesColumns[0]},
	}

	// ChunksColumns holds the columns for the "chunks" table.
	ChunksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "content", Type: field.TypeString, Size: 2147483647},
		{Name: "difficulty_index", Type: field.TypeInt, Default: 3},
		{Name: "concept_map", Type: field.TypeString, Size: 2147483647},
		{Name: "quotas", Type: field.TypeString, Nullable: true},
		{Name: "position", Type: field.TypeInt, Default: 0},
	}
	// ChunksTable holds the schema information for the "chunks" table.
	ChunksTable = &schema.Table{
		Name:       "chunks",
		Columns:    ChunksColumns,
		PrimaryKey: []*schema.Column{ChunksColumns[0]},
		Indexes: []*schema.Index{
			{Name: "chunk_course_id", Columns: []*schema.Column{ChunksColumns[1]}},
		},
	}

	// QuestionsColumns holds the columns for the "questions" table.
	QuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "chunk_id", Type: field.TypeString, Nullable: true},
		{Name: "parent_question_id", Type: field.TypeString, Nullable: true},
		{Name: "prompt", Type: field.TypeString, Size: 2147483647},
		{Name: "options", Type: field.TypeString, Size: 2147483647},
		{Name: "correct_index", Type: field.TypeInt},
		{Name: "explanation", Type: field.TypeString, Size: 2147483647},
		{Name: "evidence", Type: field.TypeString, Size: 2147483647},
		{Name: "image_ref", Type: field.TypeString, Nullable: true},
		{Name: "usage_type", Type: field.TypeString},
		{Name: "bloom_level", Type: field.TypeString},
		{Name: "concept", Type: field.TypeString, Nullable: true},
		{Name: "created_at", Type: field.TypeInt64},
	}
	// QuestionsTable holds the schema information for the "questions" table.
	QuestionsTable = &schema.Table{
		Name:       "questions",
		Columns:    QuestionsColumns,
		PrimaryKey: []*schema.Column{QuestionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "question_course_id_usage_type", Columns: []*schema.Column{QuestionsColumns[1], QuestionsColumns[10]}},
			{Name: "question_chunk_id", Columns: []*schema.Column{QuestionsColumns[2]}},
			{Name: "question_parent_question_id", Columns: []*schema.Column{QuestionsColumns[3]}},
		},
	}

	// UserQuestionStatusColumns holds the columns for the "user_question_status" table.
	UserQuestionStatusColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "chunk_id", Type: field.TypeString, Nullable: true},
		{Name: "status", Type: field.TypeString},
		{Name: "consecutive_success", Type: field.TypeFloat64, Default: 0},
		{Name: "consecutive_fails", Type: field.TypeInt, Default: 0},
		{Name: "next_review_session", Type: field.TypeInt, Nullable: true},
		{Name: "score", Type: field.TypeFloat64, Default: 0},
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// UserQuestionStatusTable holds the schema information for the "user_question_status" table.
	UserQuestionStatusTable = &schema.Table{
		Name:       "user_question_status",
		Columns:    UserQuestionStatusColumns,
		PrimaryKey: []*schema.Column{UserQuestionStatusColumns[0], UserQuestionStatusColumns[1]},
		Indexes: []*schema.Index{
			{Name: "status_user_course_status", Columns: []*schema.Column{
				UserQuestionStatusColumns[0], UserQuestionStatusColumns[2], UserQuestionStatusColumns[4],
			}},
			{Name: "status_user_chunk", Columns: []*schema.Column{UserQuestionStatusColumns[0], UserQuestionStatusColumns[3]}},
		},
	}

	// SessionCountersColumns holds the columns for the "session_counters" table.
	SessionCountersColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "current_session", Type: field.TypeInt},
		{Name: "last_session_date", Type: field.TypeString},
	}
	// SessionCountersTable holds the schema information for the "session_counters" table.
	SessionCountersTable = &schema.Table{
		Name:       "session_counters",
		Columns:    SessionCountersColumns,
		PrimaryKey: []*schema.Column{SessionCountersColumns[0], SessionCountersColumns[1]},
	}

	// ChunkMasteryColumns holds the columns for the "chunk_mastery" table.
	ChunkMasteryColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "chunk_id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "mastery_score", Type: field.TypeInt, Default: 0},
		{Name: "last_reviewed_session", Type: field.TypeInt, Default: 0},
		{Name: "last_full_review_at", Type: field.TypeInt64, Nullable: true},
		{Name: "total_questions_seen", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// ChunkMasteryTable holds the schema information for the "chunk_mastery" table.
	ChunkMasteryTable = &schema.Table{
		Name:       "chunk_mastery",
		Columns:    ChunkMasteryColumns,
		PrimaryKey: []*schema.Column{ChunkMasteryColumns[0], ChunkMasteryColumns[1]},
		Indexes: []*schema.Index{
			{Name: "chunk_mastery_user_course", Columns: []*schema.Column{ChunkMasteryColumns[0], ChunkMasteryColumns[2]}},
		},
	}

	// AnswersColumns holds the columns for the "answers" table.
	AnswersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "chunk_id", Type: field.TypeString, Nullable: true},
		{Name: "session_number", Type: field.TypeInt},
		{Name: "response", Type: field.TypeString},
		{Name: "elapsed_ms", Type: field.TypeInt64},
		{Name: "score_delta", Type: field.TypeFloat64},
		{Name: "new_status", Type: field.TypeString},
		{Name: "mock", Type: field.TypeBool, Default: false},
		{Name: "answered_at", Type: field.TypeInt64},
	}
	// AnswersTable holds the schema information for the "answers" table.
	AnswersTable = &schema.Table{
		Name:       "answers",
		Columns:    AnswersColumns,
		PrimaryKey: []*schema.Column{AnswersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "answer_user_course", Columns: []*schema.Column{AnswersColumns[1], AnswersColumns[2]}},
		},
	}

	// SessionSnapshotsColumns holds the columns for the "session_snapshots" table.
	SessionSnapshotsColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "course_id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeInt},
		{Name: "current_review_index", Type: field.TypeInt},
		{Name: "content_version", Type: field.TypeInt64},
		{Name: "queue", Type: field.TypeString, Size: 2147483647},
		{Name: "saved_at", Type: field.TypeInt64},
		{Name: "expires_at", Type: field.TypeInt64},
	}
	// SessionSnapshotsTable holds the schema information for the "session_snapshots" table.
	SessionSnapshotsTable = &schema.Table{
		Name:       "session_snapshots",
		Columns:    SessionSnapshotsColumns,
		PrimaryKey: []*schema.Column{SessionSnapshotsColumns[0], SessionSnapshotsColumns[1]},
	}

	// LlmEventsColumns holds the columns for the "llm_events" table.
	LlmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LlmEventsTable holds the schema information for the "llm_events" table.
	LlmEventsTable = &schema.Table{
		Name:       "llm_events",
		Columns:    LlmEventsColumns,
		PrimaryKey: []*schema.Column{LlmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llm_event_purpose", Columns: []*schema.Column{LlmEventsColumns[5]}},
			{Name: "llm_event_timestamp", Columns: []*schema.Column{LlmEventsColumns[2]}},
		},
	}

	// GlobalSequenceColumns holds the columns for the "global_sequence" table.
	GlobalSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	// GlobalSequenceTable holds the schema information for the "global_sequence" table.
	GlobalSequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    GlobalSequenceColumns,
		PrimaryKey: []*schema.Column{GlobalSequenceColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		CoursesTable,
		ChunksTable,
		QuestionsTable,
		UserQuestionStatusTable,
		SessionCountersTable,
		ChunkMasteryTable,
		AnswersTable,
		SessionSnapshotsTable,
		LlmEventsTable,
		GlobalSequenceTable,
	}
)
