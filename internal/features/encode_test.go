package features

import (
	"errors"
	"reflect"
	"testing"

	"flightdelay/internal/flight"
)

func rec(airline, flightType string, month int) flight.Record {
	return flight.Record{Airline: airline, FlightType: flightType, Month: month}
}

func TestEncodeEstablishOrder(t *testing.T) {
	t.Parallel()

	records := []flight.Record{
		rec("Grupo LATAM", "N", 3),
		rec("Sky Airline", "I", 3),
		rec("Grupo LATAM", "I", 7),
	}

	matrix, columns := Encode(records)

	wantColumns := []string{
		"OPERA_Grupo LATAM", "TIPOVUELO_N", "MES_3",
		"OPERA_Sky Airline", "TIPOVUELO_I",
		"MES_7",
	}
	if !reflect.DeepEqual(columns, wantColumns) {
		t.Fatalf("columns = %v, want %v", columns, wantColumns)
	}

	wantMatrix := [][]float64{
		{1, 1, 1, 0, 0, 0},
		{0, 0, 1, 1, 1, 0},
		{1, 0, 0, 0, 1, 1},
	}
	if !reflect.DeepEqual(matrix, wantMatrix) {
		t.Errorf("matrix = %v, want %v", matrix, wantMatrix)
	}
}

func TestEncodeOrderDependsOnInput(t *testing.T) {
	t.Parallel()

	a := []flight.Record{rec("Grupo LATAM", "N", 3), rec("Sky Airline", "I", 7)}
	b := []flight.Record{rec("Sky Airline", "I", 7), rec("Grupo LATAM", "N", 3)}

	_, colsA := Encode(a)
	_, colsB := Encode(b)

	if reflect.DeepEqual(colsA, colsB) {
		t.Error("expected different column orders for different input orders")
	}
	if len(colsA) != len(colsB) {
		t.Errorf("column counts differ: %d vs %d", len(colsA), len(colsB))
	}
}

func TestEncodeWithColumnsZeroFill(t *testing.T) {
	t.Parallel()

	// Persisted order mentions a month the batch never produces.
	columns := []string{"OPERA_Grupo LATAM", "TIPOVUELO_N", "MES_3", "MES_12"}

	matrix, err := EncodeWithColumns([]flight.Record{rec("Grupo LATAM", "N", 3)}, columns)
	if err != nil {
		t.Fatalf("EncodeWithColumns: %v", err)
	}

	want := [][]float64{{1, 1, 1, 0}}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want %v", matrix, want)
	}
}

func TestEncodeWithColumnsDropsUnknown(t *testing.T) {
	t.Parallel()

	// The batch activates columns absent from the persisted order; they must
	// vanish rather than shift anything.
	columns := []string{"OPERA_Grupo LATAM", "TIPOVUELO_N", "MES_3"}

	matrix, err := EncodeWithColumns([]flight.Record{rec("Aerolineas Argentinas", "I", 7)}, columns)
	if err != nil {
		t.Fatalf("EncodeWithColumns: %v", err)
	}

	want := [][]float64{{0, 0, 0}}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("unseen categories should produce all zeros, got %v", matrix)
	}
}

func TestEncodeWithColumnsUnseenAirlineKeepsOtherGroups(t *testing.T) {
	t.Parallel()

	columns := []string{"OPERA_Grupo LATAM", "TIPOVUELO_I", "MES_7"}

	matrix, err := EncodeWithColumns([]flight.Record{rec("Brand New Carrier", "I", 7)}, columns)
	if err != nil {
		t.Fatalf("EncodeWithColumns: %v", err)
	}

	want := [][]float64{{0, 1, 1}}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want %v", matrix, want)
	}
}

func TestEncodeWithColumnsMalformedOrder(t *testing.T) {
	t.Parallel()

	records := []flight.Record{rec("Grupo LATAM", "N", 3)}

	if _, err := EncodeWithColumns(records, nil); !errors.Is(err, ErrEncodingMismatch) {
		t.Errorf("empty order: got %v, want ErrEncodingMismatch", err)
	}

	dup := []string{"OPERA_Grupo LATAM", "OPERA_Grupo LATAM"}
	if _, err := EncodeWithColumns(records, dup); !errors.Is(err, ErrEncodingMismatch) {
		t.Errorf("duplicate order: got %v, want ErrEncodingMismatch", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	records := []flight.Record{
		rec("Grupo LATAM", "N", 3),
		rec("Sky Airline", "I", 12),
		rec("Copa Air", "I", 3),
	}

	matrix, columns := Encode(records)
	again, err := EncodeWithColumns(records, columns)
	if err != nil {
		t.Fatalf("EncodeWithColumns: %v", err)
	}
	if !reflect.DeepEqual(matrix, again) {
		t.Errorf("re-encoding against established order changed the matrix:\n%v\nvs\n%v", matrix, again)
	}
}
