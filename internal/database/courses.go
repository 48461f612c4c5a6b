package database

import (
	"database/sql"
	"fmt"
	"skillforge/internal/model"
	"strings"
)

// CourseFilter narrows and orders the public catalog listing.
type CourseFilter struct {
	CategorySlug string
	Query        string
	Level        string
	Status       string
	Sort         string
	Page         int
	PerPage      int
}

func (c *client) GetCategories() ([]model.Category, error) {
	rows, err := c.db.Query(`SELECT id, name, slug, description, parent_id FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying for categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.ParentID); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}

	return categories, rows.Err()
}

func (c *client) CreateCategory(name, description string, parentID *int) (model.Category, error) {
	query := `INSERT INTO categories (name, slug, description, parent_id)
		VALUES ($1, $2, $3, $4) RETURNING id, name, slug, description, parent_id`
	var cat model.Category
	err := c.db.QueryRow(query, name, model.Slugify(name), description, parentID).Scan(
		&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.ParentID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Category{}, fmt.Errorf("category %q already exists: %w", name, ErrDuplicate)
		}
		return model.Category{}, fmt.Errorf("inserting category: %w", err)
	}

	return cat, nil
}

const courseColumns = `c.id, c.title, c.slug, c.instructor_id, c.overview, c.description, c.learning_objectives,
	c.category_id, c.level, c.price, c.discount_price, c.status, c.duration_hours, c.is_featured, c.languages,
	c.certificate_available, c.allow_reviews, c.tags, c.created_at, c.updated_at,
	COALESCE((SELECT AVG(rating) FROM reviews r WHERE r.course_id = c.id), 0) AS rating,
	(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id AND e.status IN ('active', 'completed')) AS total_enrolled`

func scanCourse(row interface{ Scan(...any) error }) (model.Course, error) {
	var course model.Course
	err := row.Scan(
		&course.ID, &course.Title, &course.Slug, &course.InstructorID, &course.Overview, &course.Description,
		&course.LearningObjectives, &course.CategoryID, &course.Level, &course.Price, &course.DiscountPrice,
		&course.Status, &course.DurationHours, &course.IsFeatured, &course.Languages, &course.CertificateAvailable,
		&course.AllowReviews, &course.Tags, &course.CreatedAt, &course.UpdatedAt,
		&course.Rating, &course.TotalEnrolled,
	)
	return course, err
}

// ListCourses returns one catalog page plus the total match count.
func (c *client) ListCourses(filter CourseFilter) ([]model.Course, int, error) {
	where := []string{"1 = 1"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "c.status = "+arg(filter.Status))
	}
	if filter.CategorySlug != "" {
		where = append(where, "c.category_id = (SELECT id FROM categories WHERE slug = "+arg(filter.CategorySlug)+")")
	}
	if filter.Level != "" {
		where = append(where, "c.level = "+arg(filter.Level))
	}
	if filter.Query != "" {
		p := arg("%" + filter.Query + "%")
		where = append(where, fmt.Sprintf("(c.title ILIKE %[1]s OR c.overview ILIKE %[1]s OR c.description ILIKE %[1]s OR c.tags ILIKE %[1]s)", p))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM courses c WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting courses: %w", err)
	}

	var order string
	switch filter.Sort {
	case "rating":
		order = "rating DESC, c.id"
	case "popular":
		order = "total_enrolled DESC, c.id"
	case "price_low":
		order = "COALESCE(c.discount_price, c.price), c.id"
	case "price_high":
		order = "COALESCE(c.discount_price, c.price) DESC, c.id"
	default: // newest
		order = "c.created_at DESC, c.id"
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 9
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := fmt.Sprintf(`SELECT %s FROM courses c WHERE %s ORDER BY %s LIMIT %s OFFSET %s`,
		courseColumns, whereClause, order, arg(perPage), arg((page-1)*perPage))

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying for courses: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, course)
	}

	return courses, total, rows.Err()
}

func (c *client) GetCourseByID(id int) (model.Course, error) {
	course, err := scanCourse(c.db.QueryRow(`SELECT `+courseColumns+` FROM courses c WHERE c.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Course{}, fmt.Errorf("no course found with id %d: %w", id, ErrNotFound)
		}
		return model.Course{}, fmt.Errorf("querying for course by id: %w", err)
	}

	return course, nil
}

func (c *client) GetCourseBySlug(slug string) (model.Course, error) {
	course, err := scanCourse(c.db.QueryRow(`SELECT `+courseColumns+` FROM courses c WHERE c.slug = $1`, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Course{}, fmt.Errorf("no course found with slug %s: %w", slug, ErrNotFound)
		}
		return model.Course{}, fmt.Errorf("querying for course by slug: %w", err)
	}

	return course, nil
}

// CreateCourse derives the slug from the title; on a collision it
// retries with a numeric suffix.
func (c *client) CreateCourse(course model.Course) (model.Course, error) {
	base := model.Slugify(course.Title)
	slug := base
	for attempt := 2; ; attempt++ {
		created, err := scanCourse(c.db.QueryRow(`INSERT INTO courses (title, slug, instructor_id, overview, description,
				learning_objectives, category_id, level, price, discount_price, status, duration_hours, is_featured,
				languages, certificate_available, allow_reviews, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id, title, slug, instructor_id, overview, description, learning_objectives, category_id, level,
				price, discount_price, status, duration_hours, is_featured, languages, certificate_available,
				allow_reviews, tags, created_at, updated_at, 0::float AS rating, 0 AS total_enrolled`,
			course.Title, slug, course.InstructorID, course.Overview, course.Description, course.LearningObjectives,
			course.CategoryID, course.Level, course.Price, course.DiscountPrice, course.Status, course.DurationHours,
			course.IsFeatured, course.Languages, course.CertificateAvailable, course.AllowReviews, course.Tags,
		))
		if err != nil {
			if isUniqueViolation(err) && attempt <= 20 {
				slug = fmt.Sprintf("%s-%d", base, attempt)
				continue
			}
			return model.Course{}, fmt.Errorf("inserting course: %w", err)
		}
		return created, nil
	}
}

func (c *client) UpdateCourse(course model.Course) (model.Course, error) {
	updated, err := scanCourse(c.db.QueryRow(`UPDATE courses c SET title = $1, overview = $2, description = $3,
			learning_objectives = $4, category_id = $5, level = $6, price = $7, discount_price = $8,
			duration_hours = $9, is_featured = $10, languages = $11, certificate_available = $12,
			allow_reviews = $13, tags = $14, updated_at = NOW()
		WHERE c.id = $15 RETURNING `+courseColumns,
		course.Title, course.Overview, course.Description, course.LearningObjectives, course.CategoryID,
		course.Level, course.Price, course.DiscountPrice, course.DurationHours, course.IsFeatured,
		course.Languages, course.CertificateAvailable, course.AllowReviews, course.Tags, course.ID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Course{}, fmt.Errorf("no course found with id %d: %w", course.ID, ErrNotFound)
		}
		return model.Course{}, fmt.Errorf("updating course: %w", err)
	}

	return updated, nil
}

func (c *client) UpdateCourseStatus(id int, status string) error {
	res, err := c.db.Exec(`UPDATE courses SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("updating course status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no course found with id %d: %w", id, ErrNotFound)
	}

	return nil
}

func (c *client) GetCoursesByInstructor(instructorID int) ([]model.Course, error) {
	rows, err := c.db.Query(`SELECT `+courseColumns+` FROM courses c WHERE c.instructor_id = $1 ORDER BY c.created_at DESC`, instructorID)
	if err != nil {
		return nil, fmt.Errorf("querying for instructor courses: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	return courses, rows.Err()
}

func (c *client) CreateModule(mod model.Module) (model.Module, error) {
	query := `INSERT INTO modules (course_id, title, description, position, is_free_preview)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, course_id, title, description, position, is_free_preview`
	var created model.Module
	err := c.db.QueryRow(query, mod.CourseID, mod.Title, mod.Description, mod.Position, mod.IsFreePreview).Scan(
		&created.ID, &created.CourseID, &created.Title, &created.Description, &created.Position, &created.IsFreePreview,
	)
	if err != nil {
		return model.Module{}, fmt.Errorf("inserting module: %w", err)
	}

	return created, nil
}

func (c *client) GetModulesByCourse(courseID int) ([]model.Module, error) {
	rows, err := c.db.Query(`SELECT id, course_id, title, description, position, is_free_preview
		FROM modules WHERE course_id = $1 ORDER BY position, id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying for modules: %w", err)
	}
	defer rows.Close()

	var modules []model.Module
	for rows.Next() {
		var mod model.Module
		if err := rows.Scan(&mod.ID, &mod.CourseID, &mod.Title, &mod.Description, &mod.Position, &mod.IsFreePreview); err != nil {
			return nil, err
		}
		modules = append(modules, mod)
	}

	return modules, rows.Err()
}

func (c *client) GetModuleByID(id int) (model.Module, error) {
	var mod model.Module
	err := c.db.QueryRow(`SELECT id, course_id, title, description, position, is_free_preview
		FROM modules WHERE id = $1`, id).Scan(
		&mod.ID, &mod.CourseID, &mod.Title, &mod.Description, &mod.Position, &mod.IsFreePreview,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Module{}, fmt.Errorf("no module found with id %d: %w", id, ErrNotFound)
		}
		return model.Module{}, fmt.Errorf("querying for module by id: %w", err)
	}

	return mod, nil
}

const contentColumns = `id, module_id, title, description, position, content_type, body, reading_time_minutes,
	video_url, duration_seconds, transcript, file_url, file_type, file_size_kb, instructions, due_date,
	total_points, created_at, updated_at`

func scanContent(row interface{ Scan(...any) error }) (model.Content, error) {
	var ct model.Content
	err := row.Scan(
		&ct.ID, &ct.ModuleID, &ct.Title, &ct.Description, &ct.Position, &ct.ContentType,
		&ct.Body, &ct.ReadingTimeMinutes, &ct.VideoURL, &ct.DurationSeconds, &ct.Transcript,
		&ct.FileURL, &ct.FileType, &ct.FileSizeKB, &ct.Instructions, &ct.DueDate, &ct.TotalPoints,
		&ct.CreatedAt, &ct.UpdatedAt,
	)
	return ct, err
}

func (c *client) CreateContent(content model.Content) (model.Content, error) {
	created, err := scanContent(c.db.QueryRow(`INSERT INTO contents (module_id, title, description, position,
			content_type, body, reading_time_minutes, video_url, duration_seconds, transcript, file_url,
			file_type, file_size_kb, instructions, due_date, total_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+contentColumns,
		content.ModuleID, content.Title, content.Description, content.Position, content.ContentType,
		content.Body, content.ReadingTimeMinutes, content.VideoURL, content.DurationSeconds, content.Transcript,
		content.FileURL, content.FileType, content.FileSizeKB, content.Instructions, content.DueDate, content.TotalPoints,
	))
	if err != nil {
		return model.Content{}, fmt.Errorf("inserting content: %w", err)
	}

	return created, nil
}

func (c *client) GetContentsByModule(moduleID int) ([]model.Content, error) {
	rows, err := c.db.Query(`SELECT `+contentColumns+` FROM contents WHERE module_id = $1 ORDER BY position, id`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("querying for contents: %w", err)
	}
	defer rows.Close()

	var contents []model.Content
	for rows.Next() {
		ct, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, ct)
	}

	return contents, rows.Err()
}

func (c *client) GetContentByID(id int) (model.Content, error) {
	ct, err := scanContent(c.db.QueryRow(`SELECT `+contentColumns+` FROM contents WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Content{}, fmt.Errorf("no content found with id %d: %w", id, ErrNotFound)
		}
		return model.Content{}, fmt.Errorf("querying for content by id: %w", err)
	}

	return ct, nil
}

// CountCourseContents counts every content item across all modules of a
// course; it is the denominator for completion percentages.
func (c *client) CountCourseContents(courseID int) (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM contents ct
		JOIN modules m ON m.id = ct.module_id WHERE m.course_id = $1`, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting course contents: %w", err)
	}

	return count, nil
}
