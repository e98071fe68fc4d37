package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

const enrollmentColumns = `id, user_id, course_id, status, amount_paid, gateway_order_id, gateway_payment_id, enrolled_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row rowScanner) (model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.AmountPaid, &e.GatewayOrderID, &e.GatewayPaymentID, &e.EnrolledAt, &e.UpdatedAt)
	return e, err
}

func collectEnrollments(rows pgx.Rows) ([]model.Enrollment, error) {
	defer rows.Close()

	var result []model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *enrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments
                   WHERE user_id=$1 AND course_id=$2 AND status IN ('PENDING', 'ACTIVE')`
	e, err := scanEnrollment(r.storage.pool.QueryRow(ctx, query, userID, courseID))
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id=$1`
	e, err := scanEnrollment(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID int64) ([]model.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments
                   WHERE user_id=$1 ORDER BY enrolled_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectEnrollments(rows)
}

func (r *enrollmentRepository) InsertPending(ctx context.Context, userID, courseID int64, orderID string) (*model.Enrollment, error) {
	const query = `INSERT INTO enrollments (id, user_id, course_id, status, amount_paid, gateway_order_id)
                   VALUES ($1, $2, $3, $4, 0, $5)
                   RETURNING enrolled_at, updated_at`
	e := model.Enrollment{
		ID:             uuid.New(),
		UserID:         userID,
		CourseID:       courseID,
		Status:         model.EnrollmentStatusPending,
		AmountPaid:     decimal.Zero,
		GatewayOrderID: &orderID,
	}
	err := r.storage.pool.QueryRow(ctx, query, e.ID, userID, courseID, e.Status, orderID).Scan(&e.EnrolledAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepository) ApplyPaymentTransition(ctx context.Context, expectedPaid decimal.Decimal, credit model.PaymentCredit, t model.Transition) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insertPayment = `INSERT INTO enrollment_payments (payment_id, enrollment_id, order_id, amount, source)
                               VALUES ($1, $2, $3, $4, $5)
                               ON CONFLICT (payment_id) DO NOTHING`
		tag, err := tx.Exec(ctx, insertPayment, credit.PaymentID, credit.EnrollmentID, credit.OrderID, credit.Amount, credit.Source)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrDuplicatePayment
		}

		const updateEnrollment = `UPDATE enrollments
                                  SET status=$1, amount_paid=$2, gateway_payment_id=$3, updated_at=NOW()
                                  WHERE id=$4 AND status='PENDING' AND amount_paid=$5`
		tag, err = tx.Exec(ctx, updateEnrollment, t.Status, t.AmountPaid, credit.PaymentID, credit.EnrollmentID, expectedPaid)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrConcurrentUpdate
		}
		return nil
	})
}

func (r *enrollmentRepository) ReassignOrder(ctx context.Context, id uuid.UUID, orderID string) error {
	const query = `UPDATE enrollments SET gateway_order_id=$1, updated_at=NOW(), last_reconciled_at=NULL
                   WHERE id=$2 AND status='PENDING'`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvalidState
	}
	return nil
}

func (r *enrollmentRepository) DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `DELETE FROM enrollments WHERE id=$1 AND status='PENDING' AND amount_paid=0`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *enrollmentRepository) DeleteStaleOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM enrollments WHERE status='PENDING' AND enrolled_at < $1`
	tag, err := r.storage.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *enrollmentRepository) ClaimForReconciliation(ctx context.Context, staleBefore time.Time, limit int) ([]model.Enrollment, error) {
	const query = `UPDATE enrollments SET last_reconciled_at=NOW()
                   WHERE id IN (
                       SELECT id FROM enrollments
                       WHERE status='PENDING' AND gateway_order_id IS NOT NULL
                         AND COALESCE(last_reconciled_at, updated_at) < $1
                       ORDER BY enrolled_at
                       LIMIT $2
                       FOR UPDATE SKIP LOCKED
                   )
                   RETURNING ` + enrollmentColumns
	rows, err := r.storage.pool.Query(ctx, query, staleBefore, limit)
	if err != nil {
		return nil, err
	}
	return collectEnrollments(rows)
}

func (r *enrollmentRepository) Payments(ctx context.Context, id uuid.UUID) ([]model.PaymentRecord, error) {
	const query = `SELECT payment_id, enrollment_id, order_id, amount, source, recorded_at
                   FROM enrollment_payments WHERE enrollment_id=$1 ORDER BY recorded_at`
	rows, err := r.storage.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PaymentRecord
	for rows.Next() {
		var p model.PaymentRecord
		if err := rows.Scan(&p.PaymentID, &p.EnrollmentID, &p.OrderID, &p.Amount, &p.Source, &p.RecordedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
