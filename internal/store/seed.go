package store

import (
	"context"
	"time"

	"github.com/adjeilabs/gavel/internal/core/model"
)

// SeedScenarios loads the built-in scenario catalog. Writes are keyed by UUID
// so reseeding on every boot is harmless.
func SeedScenarios(ctx context.Context, st Store) error {
	now := time.Now().UTC()
	seed := []*model.Scenario{
		{
			UUID:       "c0a8f3de-1b2c-4d5e-8f90-000000000001",
			Title:      "The Disputed Boundary at Adabraka",
			Summary:    "Two neighbours dispute ownership of a strip of land after a fence was moved.",
			Facts:      "Mr. Mensah claims his neighbour Mr. Boateng moved the boundary fence two metres into his plot at Adabraka while he was abroad. Mr. Boateng holds a site plan from 1998 showing the fence on its current line. Mr. Mensah's indenture, registered in 1995, describes the boundary by reference to a since-felled mango tree.",
			Category:   "Civil",
			LawType:    "Land law",
			Difficulty: "Intermediate",
			CreatedAt:  now,
		},
		{
			UUID:       "c0a8f3de-1b2c-4d5e-8f90-000000000002",
			Title:      "The Missing Consignment",
			Summary:    "A trader sues a haulage company over goods that never arrived in Kumasi.",
			Facts:      "Madam Serwaa paid Atlas Haulage to carry thirty bales of cloth from Accra to her shop in Kumasi. The driver says the bales were offloaded at the agreed depot; Madam Serwaa says the depot never received them. The waybill is signed but the signature is disputed.",
			Category:   "Civil",
			LawType:    "Contract and carriage of goods",
			Difficulty: "Beginner",
			CreatedAt:  now,
		},
		{
			UUID:       "c0a8f3de-1b2c-4d5e-8f90-000000000003",
			Title:      "Republic v. Owusu",
			Summary:    "A storekeeper stands accused of stealing from his employer's till.",
			Facts:      "Kwame Owusu, a storekeeper at a hardware shop in Tema, is charged with stealing GHS 12,000 over six months. The prosecution relies on till reconciliations and CCTV that shows Owusu alone at the counter on the relevant dates. Owusu says a second key to the till existed and that the reconciliations were prepared after he raised a grievance about unpaid overtime.",
			Category:   "Criminal",
			LawType:    "Criminal law - theft",
			Difficulty: "Intermediate",
			CreatedAt:  now,
		},
		{
			UUID:       "c0a8f3de-1b2c-4d5e-8f90-000000000004",
			Title:      "The Borrowed Trotro",
			Summary:    "An accident with a borrowed minibus raises questions of negligence and permission.",
			Facts:      "Yaw lent his trotro to his cousin Kofi for a funeral. Kofi let his apprentice drive part of the route, and the apprentice collided with a taxi at Kaneshie. The taxi owner sues Yaw as the vehicle owner. Yaw says permission never extended to the apprentice.",
			Category:   "Civil",
			LawType:    "Tort - negligence",
			Difficulty: "Advanced",
			CreatedAt:  now,
		},
	}

	for _, s := range seed {
		if err := st.CreateScenario(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
