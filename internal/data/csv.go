// README: CSV ingestion for orders and couriers; fails fast on schema problems.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"smartdispatch/internal/modules/driver"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/types"
)

var ErrInputSchema = errors.New("input schema error")

// LoadOrders reads orders.csv. Columns are matched by header name so the
// delimiter and column order may vary between exports.
func LoadOrders(path string) ([]*order.Order, error) {
	rows, header, err := readTable(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, path,
		"order_id", "pickup_lat", "pickup_lng", "dropoff_lat", "dropoff_lng",
		"created_time", "deadline", "estimated_delivery_time_min")
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		pickup, err := parsePoint(row[cols["pickup_lat"]], row[cols["pickup_lng"]], path, line)
		if err != nil {
			return nil, err
		}
		dropoff, err := parsePoint(row[cols["dropoff_lat"]], row[cols["dropoff_lng"]], path, line)
		if err != nil {
			return nil, err
		}
		created, err := parseClock(row[cols["created_time"]], path, line)
		if err != nil {
			return nil, err
		}
		deadline, err := parseClock(row[cols["deadline"]], path, line)
		if err != nil {
			return nil, err
		}
		estimated, err := strconv.Atoi(strings.TrimSpace(row[cols["estimated_delivery_time_min"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: bad estimated_delivery_time_min: %v", ErrInputSchema, path, line, err)
		}
		orders = append(orders, &order.Order{
			ID:                    types.ID(strings.TrimSpace(row[cols["order_id"]])),
			Pickup:                pickup,
			Dropoff:               dropoff,
			CreatedAt:             created,
			Deadline:              deadline,
			EstimatedDurationMins: estimated,
			Status:                order.StatusPending,
		})
	}
	return orders, nil
}

// LoadDrivers reads couriers.csv. A missing capacity cell falls back to the
// configured default.
func LoadDrivers(path string, defaultCapacity int) ([]*driver.Driver, error) {
	rows, header, err := readTable(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, path,
		"driver_id", "start_lat", "start_lng", "vehicle_type", "capacity", "available_from")
	if err != nil {
		return nil, err
	}

	drivers := make([]*driver.Driver, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		origin, err := parsePoint(row[cols["start_lat"]], row[cols["start_lng"]], path, line)
		if err != nil {
			return nil, err
		}
		class, err := driver.ParseVehicleClass(strings.TrimSpace(strings.ToLower(row[cols["vehicle_type"]])))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrInputSchema, path, line, err)
		}
		capacity := defaultCapacity
		if cell := strings.TrimSpace(row[cols["capacity"]]); cell != "" {
			capacity, err = strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: bad capacity: %v", ErrInputSchema, path, line, err)
			}
		}
		availableFrom, err := parseClock(row[cols["available_from"]], path, line)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver.New(
			types.ID(strings.TrimSpace(row[cols["driver_id"]])),
			origin, class, capacity, availableFrom,
		))
	}
	return drivers, nil
}

// readTable reads all records, sniffing the delimiter from the header line.
func readTable(path string) (rows [][]string, header []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInputSchema, err)
	}
	defer f.Close()

	firstLine, err := peekLine(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrInputSchema, path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(f)
	r.Comma = sniffDelimiter(firstLine)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrInputSchema, path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s: empty file", ErrInputSchema, path)
	}
	return records[1:], records[0], nil
}

func peekLine(f *os.File) (string, error) {
	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return "", err
	}
	line := string(buf[:n])
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return line, nil
}

func sniffDelimiter(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return ';'
	}
	return ','
}

func columnIndex(header []string, path string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrInputSchema, path, name)
		}
	}
	return cols, nil
}

func parsePoint(latCell, lngCell, path string, line int) (types.Point, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latCell), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: %s line %d: unparseable latitude %q", ErrInputSchema, path, line, latCell)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngCell), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: %s line %d: unparseable longitude %q", ErrInputSchema, path, line, lngCell)
	}
	return types.Point{Lat: lat, Lng: lng}, nil
}

// parseClock converts HH:MM:SS (or HH:MM) to a minute-of-day value.
func parseClock(cell, path string, line int) (float64, error) {
	parts := strings.Split(strings.TrimSpace(cell), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %s line %d: malformed timestamp %q", ErrInputSchema, path, line, cell)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %s line %d: malformed timestamp %q", ErrInputSchema, path, line, cell)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err1 = strconv.Atoi(parts[2])
		if err1 != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %s line %d: malformed timestamp %q", ErrInputSchema, path, line, cell)
		}
	}
	return float64(h*60+m) + float64(sec)/60.0, nil
}
