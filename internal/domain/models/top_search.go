package models

type TopSearch struct {
	Query  string
	Region string
	Count  int
}
