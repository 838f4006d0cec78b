package event

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/jp"
)

// VernalEquinoxDay wraps the library definition, whose calculation writes the computed day back
// into the holiday it is given
var VernalEquinoxDay = jp.VernalEquinoxDay.Clone(nil)

func init() {
	VernalEquinoxDay.Func = func(h *cal.Holiday, year int) time.Time {
		hol := *h
		return jp.VernalEquinoxDay.Func(&hol, year)
	}
}

// JapanHolidays are the national holidays of Japan. Golden Week substitutes carry forward past
// the other May holidays, the 2020 and 2021 Olympic moves of Marine, Sports and Mountain Day are
// applied and September citizens' holidays are included through 2032.
var JapanHolidays = []*cal.Holiday{
	jp.NewYear,
	jp.ComingOfAgeDay,
	jp.NationalFoundationDay,
	jp.TheEmperorsBirthday,
	VernalEquinoxDay,
	jp.ShowaDay,
	jp.ConstitutionMemorialDay,
	jp.GreeneryDay,
	jp.ChildrensDay,
	jp.MarineDay,
	jp.MountainDay,
	jp.RespectForTheAgedDay,
	jp.AutumnalEquinoxDay,
	jp.SportsDay,
	jp.CultureDay,
	jp.LaborThanksgivingDay,
	jp.NationalHolidayBetweenRespectForTheAgedDayAndAutumnalEquinoxDay,
	jp.NationalHolidayBetweenShowaDayAndNewEmperorEnthronementDay,
	jp.TheNewEmperorEnthronementDay,
	jp.NationalHolidayBetweenTheNewEmperorEnthronementDayAndConstitutionMemorialDay,
	jp.TheNewEmperorEnthronementCeremony,
}
