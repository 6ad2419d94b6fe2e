package homeapi

import (
	"strconv"
	"strings"
)

// NodeStatus mirrors the payload returned by /api/status.
type NodeStatus struct {
	Services []ServiceStatus `json:"services"`
	Docker   []Container     `json:"docker"`
	Hardware HardwareStatus  `json:"hardware"`
	Network  NetworkStatus   `json:"network"`
}

// Container describes a docker container on one host.
type Container struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Image   string `json:"image"`
}

// NaturalKey identifies the container within its host.
func (c Container) NaturalKey() string { return c.ID }

// ServiceStatus is one configured service reported inside the status payload.
type ServiceStatus struct {
	URL    *string `json:"url"`
	Status string  `json:"status"`
	Name   string  `json:"name"`
	SvName string  `json:"sv_name"`
}

// HardwareStatus reports host load and capacity.
type HardwareStatus struct {
	CPUIdlePercentages map[string]float64   `json:"cpu_idle_percentages"`
	RAM                []string             `json:"ram"`
	Disk               map[string]DiskUsage `json:"disk"`
	Temperature        string               `json:"temperature"`
	Uptime             string               `json:"uptime"`
}

// CPUAll returns the aggregate cpu figure, or zero when absent.
func (h HardwareStatus) CPUAll() float64 {
	return h.CPUIdlePercentages["all"]
}

// DiskUsage is one mounted filesystem.
type DiskUsage struct {
	Available string `json:"available"`
	Mount     string `json:"mount"`
	Percent   string `json:"percent"`
	Size      string `json:"size"`
	Used      string `json:"used"`
}

// NetworkStatus holds addressing details of a host.
type NetworkStatus struct {
	Hostname   string    `json:"hostname"`
	ExternalIP string    `json:"external_ip"`
	LocalIP    []LocalIP `json:"local_ip"`
}

// LocalIP is one interface address.
type LocalIP struct {
	Address string `json:"address"`
	Device  string `json:"device"`
	Type    string `json:"type"`
}

// SystemdUnit is a row of /api/services.
type SystemdUnit struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	SubState    string `json:"sub_state"`
	Description string `json:"description"`
	Pinned      bool   `json:"pinned"`
}

// NaturalKey identifies the unit within its host.
func (u SystemdUnit) NaturalKey() string { return u.Name }

// PinnedService records a service pinned on a given host.
type PinnedService struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

// NaturalKey identifies the pin.
func (p PinnedService) NaturalKey() string { return p.Host + "|" + p.Name }

// Device is a registered remote host.
type Device struct {
	ID       int    `json:"id"`
	Hostname string `json:"hostname"`
}

// NaturalKey identifies the device.
func (d Device) NaturalKey() string { return strconv.Itoa(d.ID) }

// PutDevice is the body of a device registration.
type PutDevice struct {
	Hostname string `json:"hostname"`
}

// Link is one entry of the links panel. The server returns links sorted by
// their order rank.
type Link struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	URL  string  `json:"url"`
	Icon *string `json:"icon,omitempty"`
}

// NaturalKey identifies the link.
func (l Link) NaturalKey() string { return strconv.Itoa(l.ID) }

// OrderID is the identifier sent with reorder mutations.
func (l Link) OrderID() int { return l.ID }

// PutLink is the body of a link creation.
type PutLink struct {
	Name string  `json:"name"`
	URL  string  `json:"url"`
	Icon *string `json:"icon,omitempty"`
}

// LinkOrder moves a link to a new index.
type LinkOrder struct {
	ID    int `json:"id"`
	Index int `json:"index"`
}

// Todo is a note stored on one host.
type Todo struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// NaturalKey identifies the todo within its host.
func (t Todo) NaturalKey() string { return strconv.Itoa(t.ID) }

// PutTodo is the body of a todo creation.
type PutTodo struct {
	Content string `json:"content"`
}

// Weather is one tracked city.
type Weather struct {
	ID             int     `json:"id"`
	City           string  `json:"city"`
	Country        string  `json:"country"`
	State          string  `json:"state"`
	OpenWeatherMap int     `json:"openweathermap_id"`
	Temperature    float64 `json:"temperature"`
	Description    string  `json:"description"`
}

// NaturalKey identifies the city.
func (w Weather) NaturalKey() string { return strconv.Itoa(w.ID) }

// PutCity is the body of a city registration.
type PutCity struct {
	Name string `json:"name"`
}

// ContainerAction is a lifecycle verb accepted by /api/docker/<id>/<action>.
type ContainerAction string

const (
	ContainerStart   ContainerAction = "start"
	ContainerStop    ContainerAction = "stop"
	ContainerRestart ContainerAction = "restart"
)

// Valid reports whether the action is one the backend understands.
func (a ContainerAction) Valid() bool {
	switch a {
	case ContainerStart, ContainerStop, ContainerRestart:
		return true
	}
	return false
}

// ParseContainerAction converts user input into a ContainerAction.
func ParseContainerAction(value string) (ContainerAction, bool) {
	a := ContainerAction(strings.ToLower(strings.TrimSpace(value)))
	return a, a.Valid()
}
