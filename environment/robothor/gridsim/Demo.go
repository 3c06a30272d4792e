package gridsim

// DemoScenes returns two small scenes. In "Room", the agent starts at
// row 1, column 1 facing +x. An Apple is reachable six cells away and a
// Vase sits on a free cell walled off from the rest of the room. In
// "Hall", a Mug and a second Apple sit at the ends of a corridor.
func DemoScenes() []Scene {
	return []Scene{
		{
			Name: "Room",
			Layout: []string{
				"########",
				"#S....##",
				"#.##..#.",
				"#.....##",
				"########",
			},
			Objects: []ObjectSpec{
				{ID: "Apple|1", Type: "Apple", Row: 3, Col: 5},
				{ID: "Vase|1", Type: "Vase", Row: 2, Col: 7},
			},
			Rotation: 90,
		},
		{
			Name: "Hall",
			Layout: []string{
				"###########",
				"#.........#",
				"#....S....#",
				"#.........#",
				"###########",
			},
			Objects: []ObjectSpec{
				{ID: "Mug|1", Type: "Mug", Row: 2, Col: 1},
				{ID: "Apple|2", Type: "Apple", Row: 2, Col: 9},
			},
			Rotation: 0,
		},
	}
}
