package onecall

// Response mirrors the OpenWeatherMap one-call 3.0 payload requested with
// exclude=minutely,alerts. Temperatures are in Kelvin and times are unix
// seconds.
type Response struct {
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	Timezone       string   `json:"timezone"`
	TimezoneOffset int      `json:"timezone_offset"`
	Current        Current  `json:"current"`
	Hourly         []Hourly `json:"hourly"`
	Daily          []Daily  `json:"daily"`
}

type Current struct {
	Dt         int64     `json:"dt"`
	Sunrise    int64     `json:"sunrise"`
	Sunset     int64     `json:"sunset"`
	Temp       float64   `json:"temp"`
	FeelsLike  float64   `json:"feels_like"`
	Pressure   int       `json:"pressure"`
	Humidity   int       `json:"humidity"`
	Clouds     int       `json:"clouds"`
	Visibility int       `json:"visibility"`
	WindSpeed  float64   `json:"wind_speed"`
	WindDeg    int       `json:"wind_deg"`
	Weather    []Weather `json:"weather"`
}

type Hourly struct {
	Dt        int64     `json:"dt"`
	Temp      float64   `json:"temp"`
	FeelsLike float64   `json:"feels_like"`
	Pressure  int       `json:"pressure"`
	Humidity  int       `json:"humidity"`
	WindSpeed float64   `json:"wind_speed"`
	Pop       float64   `json:"pop"`
	Weather   []Weather `json:"weather"`
}

type Daily struct {
	Dt        int64      `json:"dt"`
	Sunrise   int64      `json:"sunrise"`
	Sunset    int64      `json:"sunset"`
	Temp      DailyTemp  `json:"temp"`
	FeelsLike DailyFeels `json:"feels_like"`
	Pressure  int        `json:"pressure"`
	Humidity  int        `json:"humidity"`
	WindSpeed float64    `json:"wind_speed"`
	Pop       float64    `json:"pop"`
	Weather   []Weather  `json:"weather"`
}

type DailyTemp struct {
	Day   float64 `json:"day"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Night float64 `json:"night"`
	Eve   float64 `json:"eve"`
	Morn  float64 `json:"morn"`
}

type DailyFeels struct {
	Day   float64 `json:"day"`
	Night float64 `json:"night"`
	Eve   float64 `json:"eve"`
	Morn  float64 `json:"morn"`
}

// Weather is one provider condition entry. Only the first entry of each
// list is used for classification.
type Weather struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}
