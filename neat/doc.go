// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT is a genetic algorithm for the generation of evolving artificial neural networks.
// It alters both the weighting parameters and structures of networks, attempting to find
// a balance between the fitness of evolved solutions and their diversity.
//
// This implementation is based on the original paper by Kenneth O. Stanley and Risto Miikkulainen.
// A Population owns its genomes, the innovation registry they share and its random source,
// so several independent runs can coexist in one process.
//
// Basic usage:
//
//	// Load configuration
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a new population
//	pop, err := neat.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Score every genome, then breed the next generation
//	for i := 0; i < 100; i++ {
//		for g := 0; g < pop.Size(); g++ {
//			out, err := pop.Evaluate(g, []float64{0, 1})
//			if err != nil {
//				log.Fatal(err)
//			}
//			pop.AddFitness(g, score(out))
//		}
//		if pop.MaxFitness() >= target {
//			break
//		}
//		if _, err := pop.AdvanceGeneration(); err != nil {
//			log.Fatal(err)
//		}
//	}
package neat
