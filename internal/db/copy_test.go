package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyInto_EmptyRows(t *testing.T) {
	n, err := CopyInto(context.TODO(), nil, "locality.coordinates", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyInto_SchemaQualified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"locality", "pincodes"}, []string{"place_id", "pincode"}).WillReturnResult(2)

	rows := [][]any{{int64(1), "400001"}, {int64(2), "400601"}}
	n, err := CopyInto(context.Background(), mock, "locality.pincodes", []string{"place_id", "pincode"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyInto_Unqualified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"coordinates"}, []string{"place_id"}).WillReturnResult(1)

	n, err := CopyInto(context.Background(), mock, "coordinates", []string{"place_id"}, [][]any{{int64(9)}})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyInto_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"locality", "coordinates"}, []string{"a"}).WillReturnError(fmt.Errorf("permission denied"))

	_, err = CopyInto(context.Background(), mock, "locality.coordinates", []string{"a"}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO locality.coordinates")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, pgx.Identifier{"locality", "places"}, Identifier("locality.places"))
	assert.Equal(t, pgx.Identifier{"places"}, Identifier("places"))
}
