package database

import (
	"strings"
	"testing"
)

func TestBuildListQuery_BasicSelect(t *testing.T) {
	opts := NewListQueryOptions("summaries")
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_WithColumns(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithColumns("id", "url", "status"),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT "id", "url", "status" FROM "summaries"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_WithQualifiedColumns(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithColumns("summaries.id", "summaries.url", "schema_migrations.version"),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT "summaries"."id", "summaries"."url", "schema_migrations"."version" FROM "summaries"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_WithJSONColumnSpec(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithColumns("id", "result->>'summary' AS summary_text"),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT "id", "result"->>'summary' AS "summary_text" FROM "summaries"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_CountOnly(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCountOnly(),
		WithCondition(WhereCond("status", Equal, "success")),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT COUNT(*) FROM "summaries" WHERE "status" = $1`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 1 || args[0] != "success" {
		t.Errorf("Expected args [success], got %v", args)
	}
}

func TestBuildListQuery_WhereEqual(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereCond("status", Equal, "success")),
		WithCondition(WhereCond("total_tokens", GreaterThan, 1000)),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE "status" = $1 AND "total_tokens" > $2`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 2 || args[0] != "success" || args[1] != 1000 {
		t.Errorf("Expected args [success, 1000], got %v", args)
	}
}

func TestBuildListQuery_WhereLike(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereCond("url", ILike, "%example.com%")),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE "url" ILIKE $1`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 1 || args[0] != "%example.com%" {
		t.Errorf("Expected args [%%example.com%%], got %v", args)
	}
}

func TestBuildListQuery_WhereIn_StringSlice(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereCond("status", In, []string{"in_progress", "success", "failure"})),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE "status" IN ($1, $2, $3)`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 3 || args[0] != "in_progress" || args[1] != "success" || args[2] != "failure" {
		t.Errorf("Expected args [in_progress, success, failure], got %v", args)
	}
}

func TestBuildListQuery_WhereIn_IntSlice(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereCond("total_tokens", In, []int{256, 512, 1024})),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE "total_tokens" IN ($1, $2, $3)`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 3 || args[0] != 256 || args[1] != 512 || args[2] != 1024 {
		t.Errorf("Expected args [256, 512, 1024], got %v", args)
	}
}

func TestBuildListQuery_WhereAny_StringSlice(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereCond("status", Any, []string{"success", "failure"})),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE "status" = ANY (ARRAY[$1, $2])`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 2 || args[0] != "success" || args[1] != "failure" {
		t.Errorf("Expected args [success, failure], got %v", args)
	}
}

func TestBuildListQuery_WhereCustom_SingleParam(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereRawCond("updated_at > NOW() - INTERVAL '$1 days'", 7)),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE updated_at > NOW() - INTERVAL '$1 days'`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 1 || args[0] != 7 {
		t.Errorf("Expected args [7], got %v", args)
	}
}

func TestBuildListQuery_WhereCustom_MultipleParams(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereRawCond("duration_seconds BETWEEN $1 AND $2", 0.5, 30.0)),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE duration_seconds BETWEEN $1 AND $2`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 2 || args[0] != 0.5 || args[1] != 30.0 {
		t.Errorf("Expected args [0.5, 30], got %v", args)
	}
}

func TestBuildListQuery_WhereCustom_RepeatedPlaceholder(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereRawCond("(total_tokens > $1 OR duration_seconds > $1)", 100)),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE (total_tokens > $1 OR duration_seconds > $1)`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 1 || args[0] != 100 {
		t.Errorf("Expected args [100], got %v", args)
	}
}

func TestBuildListQuery_WhereCustom_HighNumberedPlaceholder(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithCondition(WhereCond("status", Equal, "success")),
		WithCondition(WhereRawCond("total_tokens > $1", 50)),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" WHERE "status" = $1 AND total_tokens > $2`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 2 || args[0] != "success" || args[1] != 50 {
		t.Errorf("Expected args [success, 50], got %v", args)
	}
}

func TestBuildListQuery_OrderBy(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithOrderBy("updated_at", "DESC"),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" ORDER BY "updated_at" DESC`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_OrderBy_QualifiedColumn(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithOrderBy("summaries.updated_at", "ASC"),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" ORDER BY "summaries"."updated_at" ASC`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_LimitOffset(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithLimit(10),
		WithOffset(20),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "summaries" LIMIT $1 OFFSET $2`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 2 || args[0] != 10 || args[1] != 20 {
		t.Errorf("Expected args [10, 20], got %v", args)
	}
}

func TestBuildListQuery_ComplexQuery(t *testing.T) {
	opts := NewListQueryOptions("summaries",
		WithColumns("id", "url", "status"),
		WithCondition(WhereCond("status", Equal, "success")),
		WithCondition(WhereCond("total_tokens", In, []int{256, 512})),
		WithCondition(WhereRawCond("updated_at > $1", "2024-01-01")),
		WithOrderBy("updated_at", "DESC"),
		WithLimit(50),
		WithOffset(0),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT "id", "url", "status" FROM "summaries" WHERE "status" = $1 AND "total_tokens" IN ($2, $3) AND updated_at > $4 ORDER BY "updated_at" DESC LIMIT $5 OFFSET $6`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 6 {
		t.Errorf("Expected 6 args, got %d: %v", len(args), args)
	}
}

func TestBuildListQuery_SQLInjectionPrevention(t *testing.T) {
	// Attempt SQL injection via table name
	opts := NewListQueryOptions("summaries; DROP TABLE summaries;--")
	query, _ := BuildListQuery(opts)

	// Should be properly quoted as a single identifier, making it harmless
	// The entire malicious string becomes a quoted identifier
	expected := `SELECT * FROM "summaries; DROP TABLE summaries;--"`
	if query != expected {
		t.Errorf("Expected %q, got %q", expected, query)
	}
	// Verify it doesn't contain unquoted DROP TABLE
	if !strings.Contains(query, `"summaries; DROP TABLE summaries;--"`) {
		t.Errorf("Table name not properly quoted: %q", query)
	}
}

func TestJSONText(t *testing.T) {
	result := JSONText("result", "summary", "summary_text")
	expected := `"result"->>'summary' AS "summary_text"`
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestJSONText_QualifiedColumn(t *testing.T) {
	result := JSONText("summaries.result", "summary", "summary_text")
	expected := `"summaries"."result"->>'summary' AS "summary_text"`
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestJSONObject(t *testing.T) {
	result := JSONObject("result", "tags", "result_tags")
	expected := `"result"->'tags' AS "result_tags"`
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestJSONPath(t *testing.T) {
	result := JSONPath("result", "meta->model", "model_name")
	expected := `"result"->'meta'->>'model' AS "model_name"`
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}
