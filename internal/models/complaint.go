package models

// Complaint 对应于数据库中的 complaints 表。
// Rows are written once by the submission workflow and never updated or deleted.
type Complaint struct {
	ID              int64   `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	ComplaintNumber string  `json:"complaintNumber" gorm:"column:complaint_number;type:text"` // YYYYMMDDHHMMSS of the submission
	Name            string  `json:"name" gorm:"column:name;type:text"`
	Latitude        float64 `json:"latitude" gorm:"column:latitude;type:real;not null"`
	Longitude       float64 `json:"longitude" gorm:"column:longitude;type:real;not null"`
	Description     string  `json:"description" gorm:"column:description;type:text"`
	Address         string  `json:"address" gorm:"column:address;type:text"`          // landmark
	PhoneNumber     string  `json:"phoneNumber" gorm:"column:phone_number;type:text"` // 10 digits
	ImagePath       string  `json:"imagePath" gorm:"column:image_path;type:text"`     // relative to the media root, e.g. images/20240101120000_bin1.jpg
	Timestamp       string  `json:"timestamp" gorm:"column:timestamp;type:text"`
}

// TableName 指定 Complaint 结构体对应的数据库表名
func (Complaint) TableName() string {
	return "complaints"
}

// TimestampLayout formats submission times to second resolution.
const TimestampLayout = "20060102150405"
