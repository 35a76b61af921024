// Package gps fixes a station's geographic position, over either a
// serial NMEA receiver or a gpsd daemon, so the localization engine's
// station-coordinate table can be built from a real survey instead of
// hand-entered numbers.
package gps

import (
	"bufio"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/stratoberry/go-gpsd"
	"go.bug.st/serial"
)

// metersPerDegreeLatitude approximates the length of one degree of
// latitude, used to project a GPS fix onto the locator's local (x, y)
// plane.
const metersPerDegreeLatitude = 111000.0

// Position is a single station fix: where the receiver sat when it
// last reported a valid position, and how good that fix was.
type Position struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Timestamp  time.Time
	FixQuality int
	Satellites int
}

// LocalXY projects this position onto the locator's local (x, y) plane
// relative to a reference point, using the same equirectangular
// approximation the reporting tool uses for the inverse projection.
func (p Position) LocalXY(refLat, refLon float64) (x, y float64) {
	y = (p.Latitude - refLat) * metersPerDegreeLatitude
	x = (p.Longitude - refLon) * metersPerDegreeLatitude * math.Cos(refLat*math.Pi/180)
	return
}

// GPSInterface is the minimal surface stationfix needs from a
// position source: bring the receiver up, block until it reports a
// fix, and release it. Neither a station survey nor a one-shot fix
// acquisition needs to poll a "current" position or quality string in
// between, so the interface doesn't expose either.
type GPSInterface interface {
	Start() error
	WaitForFix(timeout time.Duration) (*Position, error)
	Close() error
}

// GPS wraps a serial NMEA receiver or a gpsd daemon behind one
// fix-acquisition call, so stationfix can survey a station without
// caring which source it used.
type GPS struct {
	impl GPSInterface
}

// NMEASerial fixes position by reading NMEA sentences off a local
// serial GPS receiver.
type NMEASerial struct {
	port     serial.Port
	position Position
	fixChan  chan Position
	mu       sync.RWMutex
	debug    bool
}

// GPSDClient fixes position by watching TPV reports from a gpsd
// daemon, local or remote.
type GPSDClient struct {
	client  *gpsd.Session
	fixChan chan Position
	host    string
	port    string
}

// NewGPS creates a GPS instance backed by a serial NMEA receiver.
func NewGPS(portName string, baudRate int) (*GPS, error) {
	nmeaSerial, err := NewNMEASerial(portName, baudRate)
	if err != nil {
		return nil, err
	}
	return &GPS{impl: nmeaSerial}, nil
}

// NewGPSD creates a GPS instance backed by a gpsd daemon.
func NewGPSD(host, port string) (*GPS, error) {
	gpsdClient, err := NewGPSDClient(host, port)
	if err != nil {
		return nil, err
	}
	return &GPS{impl: gpsdClient}, nil
}

// NewNMEASerial opens portName and prepares to read NMEA sentences
// from it at baudRate. The receiver is expected to already be
// outputting GGA/RMC sentences; siting a station with a receiver that
// needs binary reconfiguration first is out of scope here.
func NewNMEASerial(portName string, baudRate int) (*NMEASerial, error) {
	return NewNMEASerialWithDebug(portName, baudRate, false)
}

// NewNMEASerialWithDebug is NewNMEASerial with sentence-level logging
// enabled when debug is true.
func NewNMEASerialWithDebug(portName string, baudRate int, debug bool) (*NMEASerial, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPS port %s: %w", portName, err)
	}

	return &NMEASerial{
		port:    port,
		fixChan: make(chan Position, 10),
		debug:   debug,
	}, nil
}

// NewGPSDClient prepares a gpsd-backed fix source; no connection is
// opened until Start is called. Start dials gpsd's default local address
// first and uses host:port only if that dial fails.
func NewGPSDClient(host, port string) (*GPSDClient, error) {
	return &GPSDClient{
		fixChan: make(chan Position, 10),
		host:    host,
		port:    port,
	}, nil
}

// GPS wrapper methods delegate to implementation
func (g *GPS) Start() error {
	return g.impl.Start()
}

func (g *GPS) WaitForFix(timeout time.Duration) (*Position, error) {
	return g.impl.WaitForFix(timeout)
}

func (g *GPS) Close() error {
	return g.impl.Close()
}

// SetDebug enables or disables debug logging for GPS implementations that support it
func (g *GPS) SetDebug(debug bool) {
	if nmea, ok := g.impl.(*NMEASerial); ok {
		nmea.SetDebug(debug)
	}
}

// NMEASerial implementation methods
func (n *NMEASerial) Start() error {
	go n.readLoop()
	return nil
}

func (n *NMEASerial) readLoop() {
	scanner := bufio.NewScanner(n.port)
	log.Printf("GPS: Starting NMEA read loop")

	for scanner.Scan() {
		line := scanner.Text()

		// Only process lines that look like NMEA sentences (start with $ and contain only printable ASCII)
		if len(line) == 0 || line[0] != '$' {
			continue
		}

		// Validate that line contains only printable ASCII to filter out binary data
		isPrintable := true
		for _, r := range line {
			if r < 32 || r > 126 {
				isPrintable = false
				break
			}
		}
		if !isPrintable {
			continue
		}

		if n.debug {
			log.Printf("GPS: Received NMEA: %s", line)
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			if n.debug {
				log.Printf("GPS: NMEA parse error: %v (line: %s)", err, line)
			}
			continue
		}

		switch s := sentence.(type) {
		case nmea.GGA:
			if n.debug {
				log.Printf("GPS: Processing GGA message")
			}
			n.processGGA(s)
		case nmea.RMC:
			if n.debug {
				log.Printf("GPS: Processing RMC message")
			}
			n.processRMC(s)
		default:
			if n.debug {
				log.Printf("GPS: Received %T message (ignoring, no station fix in it)", s)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("GPS: Scanner error: %v", err)
	}
	log.Printf("GPS: NMEA read loop ended")
}

func (n *NMEASerial) processGGA(s nmea.GGA) {
	if n.debug {
		log.Printf("GPS: Processing GGA - Quality: %v, Lat: %f, Lon: %f, Sats: %d",
			s.FixQuality, s.Latitude, s.Longitude, s.NumSatellites)
	}

	if s.FixQuality == nmea.Invalid {
		return
	}

	var fixQuality int
	switch s.FixQuality {
	case nmea.GPS:
		fixQuality = 1
	case nmea.DGPS:
		fixQuality = 2
	case nmea.PPS:
		fixQuality = 3
	case nmea.RTK:
		fixQuality = 4
	case nmea.FRTK:
		fixQuality = 5
	case nmea.Manual:
		fixQuality = 7
	default:
		fixQuality = 0
	}

	// Some receivers report (0,0) before they have a fix; trust the
	// coordinates only once the sentence itself claims a fix quality.
	if fixQuality <= 0 {
		return
	}

	pos := Position{
		Latitude:   s.Latitude,
		Longitude:  s.Longitude,
		Altitude:   s.Altitude,
		Timestamp:  time.Now(),
		FixQuality: fixQuality,
		Satellites: int(s.NumSatellites),
	}

	n.mu.Lock()
	n.position = pos
	n.mu.Unlock()

	if n.debug {
		log.Printf("GPS: Updated position - Lat: %.6f, Lon: %.6f, Alt: %.1f, Quality: %d, Sats: %d",
			pos.Latitude, pos.Longitude, pos.Altitude, pos.FixQuality, pos.Satellites)
	}

	select {
	case n.fixChan <- pos:
	default:
	}
}

func (n *NMEASerial) processRMC(s nmea.RMC) {
	if n.debug {
		log.Printf("GPS: Processing RMC - Valid: %t, Lat: %f, Lon: %f",
			s.Validity == "A", s.Latitude, s.Longitude)
	}

	if s.Validity != "A" {
		return
	}

	n.mu.RLock()
	currentPos := n.position
	n.mu.RUnlock()

	// RMC carries a timestamp but no altitude; keep the altitude and
	// quality from the last GGA and refresh only lat/lon/time.
	if currentPos.FixQuality == 0 {
		return
	}

	rmcTime := time.Now()
	if s.Time.Valid {
		rmcTime = time.Date(
			rmcTime.Year(), rmcTime.Month(), rmcTime.Day(),
			s.Time.Hour, s.Time.Minute, s.Time.Second,
			int(s.Time.Millisecond)*1000000,
			time.UTC,
		)
	}

	pos := Position{
		Latitude:   s.Latitude,
		Longitude:  s.Longitude,
		Altitude:   currentPos.Altitude,
		Timestamp:  rmcTime,
		FixQuality: currentPos.FixQuality,
		Satellites: currentPos.Satellites,
	}

	n.mu.Lock()
	n.position = pos
	n.mu.Unlock()
}

func (n *NMEASerial) WaitForFix(timeout time.Duration) (*Position, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case pos := <-n.fixChan:
			if pos.FixQuality > 0 {
				return &pos, nil
			}
		case <-timer.C:
			return nil, fmt.Errorf("GPS fix timeout after %v; the receiver may need NMEA GGA/RMC output enabled, or try --gps-mode=gpsd", timeout)
		}
	}
}

func (n *NMEASerial) Close() error {
	if n.port != nil {
		return n.port.Close()
	}
	return nil
}

// SetDebug enables or disables sentence-level logging for the serial source.
func (n *NMEASerial) SetDebug(debug bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.debug = debug
	if debug {
		log.Printf("GPS: Debug mode enabled for NMEA GPS")
	}
}

// GPSDClient implementation methods
func (g *GPSDClient) Start() error {
	client, err := gpsd.Dial(gpsd.DefaultAddress)
	if err != nil {
		if g.host != "" && g.port != "" {
			address := fmt.Sprintf("%s:%s", g.host, g.port)
			client, err = gpsd.Dial(address)
			if err != nil {
				return fmt.Errorf("failed to connect to gpsd at %s: %w", address, err)
			}
		} else {
			return fmt.Errorf("failed to connect to gpsd: %w", err)
		}
	}

	g.client = client

	g.client.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok {
			return
		}

		pos, ok := tpvToPosition(tpv)
		if !ok {
			return
		}

		select {
		case g.fixChan <- pos:
		default:
		}
	})

	g.client.Watch()

	return nil
}

// tpvToPosition converts a gpsd TPV report into a Position, reporting
// ok=false for reports that carry no usable fix (no 2D/3D mode, or a
// zeroed lat/lon before the daemon has actually acquired satellites).
func tpvToPosition(tpv *gpsd.TPVReport) (Position, bool) {
	var fixQuality int
	switch tpv.Mode {
	case 2, 3: // 2D or 3D fix
		fixQuality = 1
	default:
		fixQuality = 0
	}

	if fixQuality == 0 || tpv.Lat == 0 || tpv.Lon == 0 {
		return Position{}, false
	}

	return Position{
		Latitude:   tpv.Lat,
		Longitude:  tpv.Lon,
		Altitude:   tpv.Alt,
		Timestamp:  tpv.Time,
		FixQuality: fixQuality,
	}, true
}

func (g *GPSDClient) WaitForFix(timeout time.Duration) (*Position, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case pos := <-g.fixChan:
			if pos.FixQuality > 0 {
				return &pos, nil
			}
		case <-timer.C:
			return nil, fmt.Errorf("GPS fix timeout after %v", timeout)
		}
	}
}

func (g *GPSDClient) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}
