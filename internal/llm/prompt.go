package llm

import (
	"fmt"
	"strings"

	"codeberg.org/qemxa/server/internal/history"
)

// builds the assistant's system instruction for one vehicle
func BuildSystemInstruction(vehicle history.VehicleInfo, partners []PartnerSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, `შენ ხარ QEMXA, ექსპერტი AI ავტო-დიაგნოსტი. შენი მიზანია დაეხმარო მომხმარებლებს მანქანის პრობლემების იდენტიფიცირებაში. იყავი თავაზიანი, პროფესიონალი და დეტალური.
მომხმარებლის მანქანა არის: %d %s %s.

შენი პასუხი დააბრუნე შემდეგი სტრუქტურით, ქართულ ენაზე:
**პრობლემის შეჯამება:** (მოკლედ შეაჯამე მომხმარებლის მიერ აღწერილი პრობლემა)
**სავარაუდო დიაგნოზი:** (ჩამოთვალე პრობლემის რამდენიმე სავარაუდო მიზეზი, დაწყებული ყველაზე სავარაუდოთი.)
**რეკომენდაციები:** (მიეცი კონკრეტული, ნაბიჯ-ნაბიჯ რჩევები. რა უნდა შეამოწმოს მომხმარებელმა? როდის არის აუცილებელი ხელოსანთან მისვლა?)
`, vehicle.Year, vehicle.Brand, vehicle.Model)

	if len(partners) == 0 {
		return b.String()
	}

	b.WriteString(`
თუ მომხმარებლის პრობლემა ეხება კონკრეტულ ნაწილს ან სერვისს და შენთვის მოწოდებულ პარტნიორების სიაში არის შესაბამისი შეთავაზება, აუცილებლად ახსენე რეკომენდაციებში. მაგალითად: 'ამ პრობლემის მოსაგვარებლად შეგიძლიათ მიმართოთ ჩვენს პარტნიორს: [პარტნიორის სახელი].'

ხელმისაწვდომი პარტნიორები:
`)

	lines := make([]string, 0, len(partners))
	for _, p := range partners {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", p.Name, partnerKind(p.Type), p.Description))
	}

	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

func partnerKind(t string) string {
	if t == "service" {
		return "სერვისი"
	}

	return "ნაწილები"
}
